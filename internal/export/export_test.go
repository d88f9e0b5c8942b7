package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/lexgest/internal/citation"
	"github.com/dgallion1/lexgest/internal/legal"
)

var paras = []legal.Paragraph{
	{ID: "d1.p1", Text: "The Buyer shall pay $50,000 at closing.", SectionTitle: "Section 2 Price"},
	{ID: "d1.p2", Text: "The Seller shall deliver the goods."},
	{ID: "d2.p1", Text: "The Buyer shall pay $45,000 at closing."},
}

func sampleItem() legal.SummaryItem {
	return legal.SummaryItem{
		ID:    "run-1",
		Title: "Asset Purchase Agreement",
		Skim:  "A sale of goods between Acme and Zenith.",
		Extractions: []legal.Extraction{
			{Text: "The Seller delivers the goods.", SourceParagraphs: []string{"d1.p2"}},
			{Text: "Payment is due at closing.", SourceParagraphs: []string{"d2.p1", "d1.p1", "d9.p9"}},
		},
		Ontology: legal.Ontology{
			Parties: []legal.Item{{Key: "Buyer", Value: "Acme Corp", Sources: []string{"d1.p1"}}},
			Conflicts: []legal.Conflict{{
				Category: legal.CategoryObligations,
				Fact:     "The Buyer shall pay $… at closing",
				Values: []legal.ConflictValue{
					{Value: "$50,000", Sources: []string{"d1.p1"}},
					{Value: "$45,000", Sources: []string{"d2.p1"}},
				},
			}},
		},
		Coverage: legal.Coverage{TotalBatches: 2, SucceededBatches: 2, ParagraphsTotal: 3, ParagraphsCovered: 3},
	}
}

func render(t *testing.T, f Format, item legal.SummaryItem) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, f, item, citation.NewResolver(paras)))
	return buf.String()
}

func TestMarkdown(t *testing.T) {
	out := render(t, Markdown, sampleItem())
	assert.True(t, strings.HasPrefix(out, "# Asset Purchase Agreement\n"))
	assert.Contains(t, out, "## Overview")
	assert.Contains(t, out, "- The Seller delivers the goods. [2]\n")
	assert.Contains(t, out, "- Payment is due at closing. [1][3][missing:d9.p9]\n")
	assert.Contains(t, out, "### Parties")
	assert.Contains(t, out, "- **Buyer**: Acme Corp [1]")
	assert.Contains(t, out, "(Obligations)")
	assert.Contains(t, out, "  - $45,000 [3]")
	assert.Contains(t, out, "- [1] `d1.p1` (Section 2 Price) The Buyer shall pay $50,000 at closing.")
	assert.Contains(t, out, "- [missing:d9.p9] Paragraph not found.")
	assert.NotContains(t, out, "Partial coverage")
}

func TestMarkdown_PartialCoverageFlagged(t *testing.T) {
	item := sampleItem()
	item.Coverage = legal.Coverage{
		TotalBatches: 4, SucceededBatches: 3, DroppedBatches: 1,
		ParagraphsTotal: 3, ParagraphsCovered: 2, DroppedParagraphs: []string{"d1.p2"},
	}
	out := render(t, Markdown, item)
	assert.Contains(t, out, "Partial coverage: 1 of 4 batches failed; 1 of 3 paragraphs")
}

func TestText(t *testing.T) {
	out := render(t, Text, sampleItem())
	assert.Contains(t, out, "Asset Purchase Agreement\n========================\n")
	assert.Contains(t, out, "1. The Seller delivers the goods. [2]")
	assert.Contains(t, out, "* Buyer: Acme Corp [1]")
	assert.Contains(t, out, "[3] d2.p1: The Buyer shall pay $45,000 at closing.")
	assert.NotContains(t, out, "**")
}

func TestHTML(t *testing.T) {
	item := sampleItem()
	item.Title = "Lease <Draft>"
	out := render(t, HTML, item)
	assert.Contains(t, out, "<title>Lease &lt;Draft&gt;</title>")
	assert.Contains(t, out, "<h2>Summary</h2>")
	assert.Contains(t, out, "<strong>Buyer</strong>")
	assert.NotContains(t, out, "<Draft>")
}

func TestJSON(t *testing.T) {
	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(render(t, JSON, sampleItem())), &b))
	assert.Equal(t, "Asset Purchase Agreement", b.Summary.Title)
	assert.Equal(t, 3, b.Citations["d2.p1"].Number)
	assert.True(t, b.Citations["d9.p9"].Missing)
	require.Len(t, b.References, 4)
	assert.Equal(t, "d1.p1", b.References[0].ID)
}

func TestYAML(t *testing.T) {
	out := render(t, YAML, sampleItem())
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "summaryItem")
	assert.Contains(t, out, "label: '[missing:d9.p9]'")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"md": Markdown, "": Markdown, "TXT": Text, "htm": HTML, "json": JSON, "yml": YAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "master-services-agreement.md", Filename("Master Services Agreement", Markdown))
	assert.Equal(t, "summary.txt", Filename("§§", Text))
	assert.Equal(t, "html", HTML.Ext())
	assert.Equal(t, "application/yaml", YAML.ContentType())
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "smith-v-jones-2024", Slugify("  Smith v. Jones (2024) "))
	assert.LessOrEqual(t, len(Slugify(strings.Repeat("word ", 40))), 50)
}
