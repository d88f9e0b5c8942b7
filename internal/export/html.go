package export

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/lexgest/internal/citation"
	"github.com/dgallion1/lexgest/internal/legal"
)

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.Typographer))

// WriteHTML renders the Markdown export to a standalone HTML page.
func WriteHTML(w io.Writer, item legal.SummaryItem, r *citation.Resolver) error {
	var md bytes.Buffer
	if err := WriteMarkdown(&md, item, r); err != nil {
		return err
	}
	var body bytes.Buffer
	if err := markdownRenderer.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(summaryTitle(item)), body.Bytes())
	return err
}
