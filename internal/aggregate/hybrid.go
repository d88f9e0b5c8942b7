package aggregate

import (
	"context"

	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/extract"
	"github.com/dgallion1/lexgest/internal/legal"
)

// Hybrid pre-merges deterministically, lets the model merge and rephrase the
// smaller result, then repairs the model output: duplicate points are
// collapsed again, points and items the model dropped are restored, and
// every pre-detected conflict is re-attached.
type Hybrid struct {
	det   *Deterministic
	model *Model
}

func NewHybrid(c extract.Completer, log *zap.Logger) *Hybrid {
	return &Hybrid{det: NewDeterministic(DefaultSimilarity), model: NewModel(c, log)}
}

func (h *Hybrid) Name() string { return NameHybrid }

func (h *Hybrid) Aggregate(ctx context.Context, in Input) (Result, error) {
	pre, err := h.det.Aggregate(ctx, in)
	if err != nil {
		return Result{}, err
	}
	if len(pre.Extractions) == 0 && pre.Ontology.Len() == 0 {
		return pre, nil
	}
	merged, err := h.model.merge(ctx, extract.AggregateInput{
		Extractions: pre.Extractions,
		Ontology:    pre.Ontology,
	}, in)
	if err != nil {
		return Result{}, err
	}
	return h.repair(pre, merged, in), nil
}

func (h *Hybrid) repair(pre, merged Result, in Input) Result {
	order := newDocOrder(in.Paragraphs)
	threshold := h.det.threshold

	exts := merged.Extractions
	cited := citedSet(exts)
	for _, e := range pre.Extractions {
		if !anyCited(cited, e.SourceParagraphs) {
			exts = append(exts, e)
		}
	}
	exts = mergeExtractions(exts, order, threshold)

	ont := mergeOntologies([]legal.Ontology{merged.Ontology}, order, threshold)
	for _, name := range legal.AllCategories() {
		restoreItems(ont.Category(name), *pre.Ontology.Category(name), order, threshold)
	}
	ont.Conflicts = mergeConflicts(append(ont.Conflicts, pre.Ontology.Conflicts...), order)
	stripConflicted(&ont)

	return Result{Title: merged.Title, Extractions: exts, Ontology: ont}
}

func citedSet(exts []legal.Extraction) map[string]bool {
	set := map[string]bool{}
	for _, e := range exts {
		for _, id := range e.SourceParagraphs {
			set[id] = true
		}
	}
	return set
}

func anyCited(set map[string]bool, ids []string) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}

// restoreItems appends pre-merge items the model neither kept nor
// reworded: no item in dst matches the value or cites any of its sources.
func restoreItems(dst *[]legal.Item, pre []legal.Item, order docOrder, threshold float64) {
	for _, p := range pre {
		fp := newFingerprint(p.Value)
		cited := map[string]bool{}
		kept := false
		for _, it := range *dst {
			if newFingerprint(it.Value).same(fp, threshold) {
				kept = true
				break
			}
			for _, id := range it.Sources {
				cited[id] = true
			}
		}
		if !kept && !anyCited(cited, p.Sources) {
			p.Sources = order.union(nil, p.Sources)
			*dst = append(*dst, p)
		}
	}
}
