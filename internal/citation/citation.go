// Package citation maps paragraph IDs to the reference numbers shown in
// summaries and exports.
package citation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/lexgest/internal/legal"
)

// Citation is the display form of one paragraph reference.
type Citation struct {
	ID      string `json:"id" yaml:"id"`
	Number  int    `json:"number,omitempty" yaml:"number,omitempty"`
	Label   string `json:"label" yaml:"label"`
	Missing bool   `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Reference pairs a citation with the paragraph it points at. Paragraph is
// zero when the citation is missing.
type Reference struct {
	Citation  `yaml:",inline"`
	Paragraph legal.Paragraph `json:"paragraph" yaml:"paragraph"`
}

// Resolver numbers paragraphs by their position in the run, starting at 1.
// Numbers depend only on the paragraph list, never on which extraction cites
// a paragraph first.
type Resolver struct {
	numbers map[string]int
	paras   []legal.Paragraph
}

func NewResolver(paras []legal.Paragraph) *Resolver {
	r := &Resolver{numbers: make(map[string]int, len(paras))}
	for _, p := range paras {
		if _, dup := r.numbers[p.ID]; dup {
			continue
		}
		r.paras = append(r.paras, p)
		r.numbers[p.ID] = len(r.paras)
	}
	return r
}

// Resolve returns the citation for id. Unknown IDs resolve to an explicit
// missing marker.
func (r *Resolver) Resolve(id string) Citation {
	n, ok := r.numbers[id]
	if !ok {
		return Citation{ID: id, Label: fmt.Sprintf("[missing:%s]", id), Missing: true}
	}
	return Citation{ID: id, Number: n, Label: fmt.Sprintf("[%d]", n)}
}

// Labels renders the citations for ids in number order, missing last,
// e.g. "[1][3][missing:d9.p9]".
func (r *Resolver) Labels(ids []string) string {
	cites := make([]Citation, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		cites = append(cites, r.Resolve(id))
	}
	slices.SortStableFunc(cites, compareCitations)
	var sb strings.Builder
	for _, c := range cites {
		sb.WriteString(c.Label)
	}
	return sb.String()
}

// Map resolves every paragraph ID the summary references.
func (r *Resolver) Map(item legal.SummaryItem) map[string]Citation {
	out := map[string]Citation{}
	for _, id := range referencedIDs(item) {
		out[id] = r.Resolve(id)
	}
	return out
}

// References lists the paragraphs the summary cites in number order, with
// missing references at the end.
func (r *Resolver) References(item legal.SummaryItem) []Reference {
	var refs []Reference
	for _, id := range referencedIDs(item) {
		c := r.Resolve(id)
		ref := Reference{Citation: c}
		if !c.Missing {
			ref.Paragraph = r.paras[c.Number-1]
		}
		refs = append(refs, ref)
	}
	slices.SortStableFunc(refs, func(a, b Reference) int {
		return compareCitations(a.Citation, b.Citation)
	})
	return refs
}

func compareCitations(a, b Citation) int {
	switch {
	case a.Missing && b.Missing:
		return strings.Compare(a.ID, b.ID)
	case a.Missing:
		return 1
	case b.Missing:
		return -1
	}
	return a.Number - b.Number
}

// referencedIDs collects every cited ID across extractions, ontology items
// and conflicts, without duplicates.
func referencedIDs(item legal.SummaryItem) []string {
	seen := map[string]bool{}
	var ids []string
	add := func(list []string) {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	for _, e := range item.Extractions {
		add(e.SourceParagraphs)
	}
	for _, name := range legal.AllCategories() {
		for _, it := range *item.Ontology.Category(name) {
			add(it.Sources)
		}
	}
	for _, c := range item.Ontology.Conflicts {
		for _, v := range c.Values {
			add(v.Sources)
		}
	}
	return ids
}
