package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var headingRe = regexp.MustCompile(`(?i:\b(?:SUBSECTION|SECTION|ARTICLE|CLAUSE|ACT|RULE))\s+(?:[IVXLCDM]+|\d+(?:\.\d+)*[A-Za-z]?)\b[^\n]*`)

const maxTitleRunes = 80

// DetectSectionTitle scans the first scanChars characters of text for a
// heading like "Section 4 - Termination" or "ARTICLE IV". Trailing text after
// the numeral is kept up to the end of the line or first sentence.
func DetectSectionTitle(text string, scanChars int) string {
	head := text
	if utf8.RuneCountInString(head) > scanChars {
		head = string([]rune(head)[:scanChars])
	}
	m := headingRe.FindString(head)
	if m == "" {
		return ""
	}
	if idx := strings.Index(m, ". "); idx > 0 {
		m = m[:idx]
	}
	m = strings.Join(strings.Fields(m), " ")
	if utf8.RuneCountInString(m) > maxTitleRunes {
		m = strings.TrimSpace(string([]rune(m)[:maxTitleRunes]))
	}
	return strings.TrimRight(m, " .:;-–—")
}
