package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/lexgest/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx contracts and briefs. Heading styles open
// sections; everything else is body text.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// go-docx needs a ReaderAt and size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := newSectionBuilder()
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(v)
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(v); level > 0 {
				b.heading(level, text)
			} else {
				b.paragraph(text)
			}
		case *docx.Table:
			for _, row := range v.TableRows {
				var cells []string
				for _, cell := range row.TableCells {
					var parts []string
					for _, para := range cell.Paragraphs {
						if s := docxParagraphText(para); s != "" {
							parts = append(parts, s)
						}
					}
					if len(parts) > 0 {
						cells = append(cells, strings.Join(parts, " "))
					}
				}
				b.paragraph(strings.Join(cells, " | "))
			}
		}
	}

	return b.tree(baseTitle(filename)), nil
}

// docxHeadingLevel maps "Heading1".."Heading6" (or "heading 1") and "Title"
// styles to a level.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if len(style) == len("heading1") && strings.HasPrefix(style, "heading") {
		if c := style[len(style)-1]; c >= '1' && c <= '6' {
			return int(c - '0')
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			switch t := rc.(type) {
			case *docx.Text:
				buf.WriteString(t.Text)
			case *docx.Tab:
				buf.WriteByte(' ')
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
