package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lexgest/internal/legal"
)

var paras = []legal.Paragraph{
	{ID: "d1.p1", Text: "First."},
	{ID: "d1.p2", Text: "Second."},
	{ID: "d1.p3", Text: "Third."},
	{ID: "d2.p1", Text: "Fourth."},
}

func TestResolve_DocumentOrder(t *testing.T) {
	r := NewResolver(paras)
	assert.Equal(t, Citation{ID: "d1.p1", Number: 1, Label: "[1]"}, r.Resolve("d1.p1"))
	assert.Equal(t, "[3]", r.Resolve("d1.p3").Label)
	assert.Equal(t, 4, r.Resolve("d2.p1").Number)
}

func TestResolve_Missing(t *testing.T) {
	c := NewResolver(paras).Resolve("d9.p9")
	assert.True(t, c.Missing)
	assert.Equal(t, "[missing:d9.p9]", c.Label)
	assert.Zero(t, c.Number)
}

func TestResolve_StableAcrossExtractionOrder(t *testing.T) {
	a := legal.SummaryItem{Extractions: []legal.Extraction{
		{Text: "x", SourceParagraphs: []string{"d2.p1"}},
		{Text: "y", SourceParagraphs: []string{"d1.p2", "d1.p1"}},
	}}
	b := legal.SummaryItem{Extractions: []legal.Extraction{
		{Text: "y", SourceParagraphs: []string{"d1.p1", "d1.p2"}},
		{Text: "x", SourceParagraphs: []string{"d2.p1"}},
	}}
	assert.Equal(t, NewResolver(paras).Map(a), NewResolver(paras).Map(b))
}

func TestLabels(t *testing.T) {
	r := NewResolver(paras)
	assert.Equal(t, "[1][3][missing:d9.p9]", r.Labels([]string{"d9.p9", "d1.p3", "d1.p1", "d1.p3"}))
	assert.Equal(t, "", r.Labels(nil))
}

func TestReferences(t *testing.T) {
	item := legal.SummaryItem{
		Extractions: []legal.Extraction{{Text: "x", SourceParagraphs: []string{"d1.p3", "d8.p1"}}},
		Ontology: legal.Ontology{
			Parties: []legal.Item{{Value: "Acme", Sources: []string{"d1.p1"}}},
			Conflicts: []legal.Conflict{{Fact: "amount", Values: []legal.ConflictValue{
				{Value: "$1", Sources: []string{"d2.p1"}},
				{Value: "$2", Sources: []string{"d1.p3"}},
			}}},
		},
	}
	refs := NewResolver(paras).References(item)
	require.Len(t, refs, 4)
	assert.Equal(t, "[1]", refs[0].Label)
	assert.Equal(t, "First.", refs[0].Paragraph.Text)
	assert.Equal(t, "[3]", refs[1].Label)
	assert.Equal(t, "[4]", refs[2].Label)
	assert.True(t, refs[3].Missing)
	assert.Empty(t, refs[3].Paragraph.ID)
}

func TestNewResolver_DuplicateIDsKeepFirst(t *testing.T) {
	r := NewResolver([]legal.Paragraph{{ID: "d1.p1", Text: "a"}, {ID: "d1.p1", Text: "b"}, {ID: "d1.p2"}})
	assert.Equal(t, 2, r.Resolve("d1.p2").Number)
}
