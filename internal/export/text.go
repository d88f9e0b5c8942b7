package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/lexgest/internal/citation"
	"github.com/dgallion1/lexgest/internal/legal"
)

// WriteText renders the summary as plain text.
func WriteText(w io.Writer, item legal.SummaryItem, r *citation.Resolver) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) { fmt.Fprintf(bw, format, args...) }
	heading := func(s string) { p("%s\n%s\n\n", s, strings.Repeat("-", len([]rune(s)))) }

	title := summaryTitle(item)
	p("%s\n%s\n\n", title, strings.Repeat("=", len([]rune(title))))
	if note := coverageNote(item.Coverage); note != "" {
		p("NOTE: %s\n\n", note)
	}
	if item.Skim != "" {
		heading("Overview")
		p("%s\n\n", strings.TrimSpace(item.Skim))
	}

	heading("Summary")
	for i, e := range item.Extractions {
		p("%d. %s %s\n", i+1, e.Text, r.Labels(e.SourceParagraphs))
	}
	p("\n")

	for _, name := range legal.AllCategories() {
		items := *item.Ontology.Category(name)
		if len(items) == 0 {
			continue
		}
		heading(categoryLabel(name))
		for _, it := range items {
			key, value := itemLine(it)
			if key != "" {
				value = key + ": " + value
			}
			p("* %s %s\n", value, r.Labels(it.Sources))
		}
		p("\n")
	}
	if len(item.Ontology.Conflicts) > 0 {
		heading("Conflicts")
		for _, c := range item.Ontology.Conflicts {
			p("* %s\n", c.Fact)
			for _, v := range c.Values {
				p("    - %s %s\n", v.Value, r.Labels(v.Sources))
			}
		}
		p("\n")
	}

	if refs := r.References(item); len(refs) > 0 {
		heading("References")
		for _, ref := range refs {
			if ref.Missing {
				p("%s paragraph not found\n", ref.Label)
				continue
			}
			p("%s %s: %s\n", ref.Label, ref.ID, ref.Paragraph.Text)
		}
	}
	return bw.Flush()
}
