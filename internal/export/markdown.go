package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/lexgest/internal/citation"
	"github.com/dgallion1/lexgest/internal/legal"
)

// WriteMarkdown renders the summary with [n] citations and a numbered
// references section.
func WriteMarkdown(w io.Writer, item legal.SummaryItem, r *citation.Resolver) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) { fmt.Fprintf(bw, format, args...) }

	p("# %s\n\n", escapeMarkdown(summaryTitle(item)))
	if note := coverageNote(item.Coverage); note != "" {
		p("> **%s**\n\n", note)
	}
	if item.Skim != "" {
		p("## Overview\n\n%s\n\n", strings.TrimSpace(item.Skim))
	}

	p("## Summary\n\n")
	if len(item.Extractions) == 0 {
		p("_No points were extracted._\n\n")
	}
	for _, e := range item.Extractions {
		p("- %s %s\n", escapeMarkdown(e.Text), r.Labels(e.SourceParagraphs))
	}
	if len(item.Extractions) > 0 {
		p("\n")
	}

	if item.Ontology.Len() > 0 || len(item.Ontology.Conflicts) > 0 {
		p("## Legal Ontology\n\n")
		for _, name := range legal.AllCategories() {
			items := *item.Ontology.Category(name)
			if len(items) == 0 {
				continue
			}
			p("### %s\n\n", categoryLabel(name))
			for _, it := range items {
				key, value := itemLine(it)
				if key != "" {
					p("- **%s**: %s %s\n", escapeMarkdown(key), escapeMarkdown(value), r.Labels(it.Sources))
				} else {
					p("- %s %s\n", escapeMarkdown(value), r.Labels(it.Sources))
				}
			}
			p("\n")
		}
		if len(item.Ontology.Conflicts) > 0 {
			p("### Conflicts\n\n")
			for _, c := range item.Ontology.Conflicts {
				if c.Category != "" {
					p("- **%s** (%s)\n", escapeMarkdown(c.Fact), categoryLabel(c.Category))
				} else {
					p("- **%s**\n", escapeMarkdown(c.Fact))
				}
				for _, v := range c.Values {
					p("  - %s %s\n", escapeMarkdown(v.Value), r.Labels(v.Sources))
				}
			}
			p("\n")
		}
	}

	if refs := r.References(item); len(refs) > 0 {
		p("## References\n\n")
		for _, ref := range refs {
			if ref.Missing {
				p("- %s Paragraph not found.\n", ref.Label)
				continue
			}
			section := ""
			if ref.Paragraph.SectionTitle != "" {
				section = fmt.Sprintf(" (%s)", escapeMarkdown(ref.Paragraph.SectionTitle))
			}
			p("- %s `%s`%s %s\n", ref.Label, ref.ID, section, escapeMarkdown(ref.Paragraph.Text))
		}
	}
	return bw.Flush()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "<", `\<`, "#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
