// Package export renders a SummaryItem with resolved citations as Markdown,
// plain text, HTML, JSON or YAML.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/lexgest/internal/citation"
	"github.com/dgallion1/lexgest/internal/legal"
)

// Format is an export rendering.
type Format string

const (
	Markdown Format = "markdown"
	Text     Format = "text"
	HTML     Format = "html"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

// ParseFormat accepts a format name or a common alias such as "md".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return Markdown, nil
	case "text", "txt", "plain":
		return Text, nil
	case "html", "htm":
		return HTML, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the HTTP media type of the rendering.
func (f Format) ContentType() string {
	switch f {
	case Markdown:
		return "text/markdown; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	}
	return "text/plain; charset=utf-8"
}

// Ext is the file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case Markdown:
		return "md"
	case Text:
		return "txt"
	case YAML:
		return "yaml"
	}
	return string(f)
}

// Render writes item in format f.
func Render(w io.Writer, f Format, item legal.SummaryItem, r *citation.Resolver) error {
	switch f {
	case Markdown:
		return WriteMarkdown(w, item, r)
	case Text:
		return WriteText(w, item, r)
	case HTML:
		return WriteHTML(w, item, r)
	case JSON:
		return WriteJSON(w, item, r)
	case YAML:
		return WriteYAML(w, item, r)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// Filename builds a download name such as "master-services-agreement.md".
func Filename(title string, f Format) string {
	slug := Slugify(title)
	if slug == "" {
		slug = "summary"
	}
	return slug + "." + f.Ext()
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}

// categoryLabel turns "proceduralPosture" into "Procedural Posture".
func categoryLabel(name string) string {
	if name == "" {
		return ""
	}
	var sb strings.Builder
	for i, r := range name {
		switch {
		case i == 0:
			sb.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			sb.WriteByte(' ')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// coverageNote describes reduced coverage, or returns "" when every batch
// made it into the summary.
func coverageNote(c legal.Coverage) string {
	if c.Complete() {
		return ""
	}
	return fmt.Sprintf("Partial coverage: %d of %d batches failed; %d of %d paragraphs are not reflected in this summary.",
		c.DroppedBatches, c.TotalBatches, len(c.DroppedParagraphs), c.ParagraphsTotal)
}

// itemLine renders "Key: Value" or just the value.
func itemLine(it legal.Item) (key, value string) {
	return strings.TrimSpace(it.Key), strings.TrimSpace(it.Value)
}

func summaryTitle(item legal.SummaryItem) string {
	if t := strings.TrimSpace(item.Title); t != "" {
		return t
	}
	return "Legal Document Summary"
}
