package aggregate

import (
	"cmp"
	"context"
	"slices"

	"github.com/dgallion1/lexgest/internal/legal"
)

// Deterministic merges without any model call. The same input always yields
// the same output.
type Deterministic struct {
	threshold float64
}

func NewDeterministic(threshold float64) *Deterministic {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarity
	}
	return &Deterministic{threshold: threshold}
}

func (d *Deterministic) Name() string { return NameDeterministic }

func (d *Deterministic) Aggregate(_ context.Context, in Input) (Result, error) {
	order := newDocOrder(in.Paragraphs)
	var all []legal.Extraction
	onts := make([]legal.Ontology, 0, len(in.Results))
	for _, r := range in.Results {
		all = append(all, r.Extractions...)
		onts = append(onts, r.Ontology)
	}
	exts := mergeExtractions(all, order, d.threshold)
	ont := mergeOntologies(onts, order, d.threshold)
	ont.Conflicts = mergeConflicts(append(ont.Conflicts, extractionConflicts(exts, order)...), order)
	return Result{
		Title:       defaultTitle(in),
		Extractions: exts,
		Ontology:    ont,
	}, nil
}

// fingerprint is the comparable form of a point or item value.
type fingerprint struct {
	norm string
	sig  string
}

func newFingerprint(s string) fingerprint {
	n := normalize(s)
	return fingerprint{norm: n, sig: numericSignature(n)}
}

// same reports whether two values state the same fact. Differing numbers
// never match, however similar the wording.
func (f fingerprint) same(g fingerprint, threshold float64) bool {
	if f.norm == g.norm {
		return true
	}
	if f.sig != g.sig || jaccard(f.norm, g.norm) < 0.5 {
		return false
	}
	return similarity(f.norm, g.norm) >= threshold
}

// mergeExtractions collapses points that state the same fact, unioning their
// sources, and orders the result by earliest cited paragraph.
func mergeExtractions(list []legal.Extraction, order docOrder, threshold float64) []legal.Extraction {
	type cluster struct {
		ext legal.Extraction
		fp  fingerprint
	}
	var clusters []*cluster
next:
	for _, e := range list {
		fp := newFingerprint(e.Text)
		if fp.norm == "" {
			continue
		}
		for _, c := range clusters {
			if c.fp.same(fp, threshold) {
				c.ext.SourceParagraphs = order.union(c.ext.SourceParagraphs, e.SourceParagraphs)
				continue next
			}
		}
		clusters = append(clusters, &cluster{
			ext: legal.Extraction{Text: e.Text, SourceParagraphs: order.union(nil, e.SourceParagraphs)},
			fp:  fp,
		})
	}
	out := make([]legal.Extraction, len(clusters))
	for i, c := range clusters {
		out[i] = c.ext
	}
	slices.SortStableFunc(out, func(a, b legal.Extraction) int {
		return cmp.Compare(order.first(a.SourceParagraphs), order.first(b.SourceParagraphs))
	})
	return out
}

// dedupeItems collapses items with the same key and value. An item without a
// key matches a keyed one on value alone and the key is kept.
func dedupeItems(items []legal.Item, order docOrder, threshold float64) []legal.Item {
	type entry struct {
		item legal.Item
		key  string
		fp   fingerprint
	}
	var entries []*entry
next:
	for _, it := range items {
		fp := newFingerprint(it.Value)
		if fp.norm == "" {
			continue
		}
		key := normalize(it.Key)
		for _, e := range entries {
			if e.key != "" && key != "" && e.key != key {
				continue
			}
			if !e.fp.same(fp, threshold) {
				continue
			}
			e.item.Sources = order.union(e.item.Sources, it.Sources)
			if e.key == "" && key != "" {
				e.item.Key, e.key = it.Key, key
			}
			continue next
		}
		it.Sources = order.union(nil, it.Sources)
		entries = append(entries, &entry{item: it, key: key, fp: fp})
	}
	if len(entries) == 0 {
		return nil
	}
	out := make([]legal.Item, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}

// mergeOntologies unions the categories of several ontologies, dedupes each
// and moves contradictory items into conflicts.
func mergeOntologies(onts []legal.Ontology, order docOrder, threshold float64) legal.Ontology {
	var out legal.Ontology
	var reported []legal.Conflict
	for _, name := range legal.AllCategories() {
		var items []legal.Item
		for i := range onts {
			items = append(items, *onts[i].Category(name)...)
		}
		*out.Category(name) = dedupeItems(items, order, threshold)
	}
	for _, o := range onts {
		reported = append(reported, o.Conflicts...)
	}
	detected := detectConflicts(&out, order)
	out.Conflicts = mergeConflicts(append(reported, detected...), order)
	stripConflicted(&out)
	return out
}
