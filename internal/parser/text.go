package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/lexgest/internal/doctree"
)

// legalHeadingLine matches standalone heading lines in plain-text contracts
// and statutes, e.g. "ARTICLE IV" or "Section 2. Definitions".
var legalHeadingLine = regexp.MustCompile(`^(?i:SUBSECTION|SECTION|ARTICLE|CLAUSE|ACT|RULE|SCHEDULE|EXHIBIT)\s+(?:[IVXLCDM]+|\d+(?:\.\d+)*[A-Za-z]?)\b.{0,80}$`)

// TextParser handles plain text files. Blank lines separate paragraphs; a
// paragraph consisting of a single legal heading line opens a new section.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	b := newSectionBuilder()
	var current []string

	emit := func() {
		if len(current) == 0 {
			return
		}
		if len(current) == 1 && legalHeadingLine.MatchString(current[0]) {
			b.heading(1, current[0])
		} else {
			b.paragraph(strings.Join(current, "\n"))
		}
		current = current[:0]
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			emit()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	emit()

	return b.tree(baseTitle(filename)), nil
}
