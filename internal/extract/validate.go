package extract

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/lexgest/internal/legal"
)

const (
	minPointChars = 3
	maxPointChars = 1200
	maxItemChars  = 600
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+an?\s+(ai|assistant|model)|forget\s+(everything|all)|` +
		`new\s+instructions)`,
)

// batchResponse is the JSON schema the batch prompt asks for.
type batchResponse struct {
	Extractions []legal.Extraction `json:"extractions"`
	Ontology    legal.Ontology     `json:"legalOntology"`
}

// Rejections counts what validation removed from a model response.
type Rejections struct {
	Extractions int
	Items       int
	Sources     int
}

// evidence is the set of paragraphs a response may cite.
type evidence struct {
	order map[string]int
	paras []legal.Paragraph
	lower []string
}

func newEvidence(paras []legal.Paragraph) *evidence {
	ev := &evidence{order: make(map[string]int, len(paras)), paras: paras, lower: make([]string, len(paras))}
	for i, p := range paras {
		ev.order[p.ID] = i
		ev.lower[i] = strings.ToLower(p.Text)
	}
	return ev
}

// filterSources keeps known IDs, deduplicated and in paragraph order.
func (ev *evidence) filterSources(ids []string, rej *Rejections) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.Trim(strings.TrimSpace(id), "[]")
		if _, ok := ev.order[id]; !ok {
			rej.Sources++
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sortByOrder(out, ev.order)
	return out
}

// locate returns paragraphs whose text contains value verbatim, ignoring case.
func (ev *evidence) locate(value string) []string {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return nil
	}
	var out []string
	for i, text := range ev.lower {
		if strings.Contains(text, needle) {
			out = append(out, ev.paras[i].ID)
		}
	}
	return out
}

func sortByOrder(ids []string, order map[string]int) {
	slices.SortStableFunc(ids, func(a, b string) int { return cmp.Compare(order[a], order[b]) })
}

// ValidText reports whether a point or item text is usable.
func ValidText(text string, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < minPointChars || n > max {
		return false
	}
	return !injectionPattern.MatchString(text)
}

// Sanitize enforces the evidence invariants on parsed model output: every
// extraction cites at least one of paras, and every ontology item is backed
// by a cited or verbatim-matching paragraph. Anything else is dropped.
func Sanitize(extractions []legal.Extraction, ontology legal.Ontology, paras []legal.Paragraph, opts legal.Options) (legal.BatchResult, Rejections) {
	ev := newEvidence(paras)
	var rej Rejections
	var res legal.BatchResult

	for _, e := range extractions {
		text := strings.TrimSpace(e.Text)
		if !ValidText(text, maxPointChars) {
			rej.Extractions++
			continue
		}
		sources := ev.filterSources(e.SourceParagraphs, &rej)
		if len(sources) == 0 {
			rej.Extractions++
			continue
		}
		res.Extractions = append(res.Extractions, legal.Extraction{Text: text, SourceParagraphs: sources})
	}

	allowed := legal.BaseCategories
	if opts.Extended() {
		allowed = legal.AllCategories()
	}
	for _, name := range allowed {
		src := ontology.Category(name)
		dst := res.Ontology.Category(name)
		for _, it := range *src {
			it.Key = strings.TrimSpace(it.Key)
			it.Value = strings.TrimSpace(it.Value)
			if it.Value == "" && it.Key != "" {
				it.Value, it.Key = it.Key, ""
			}
			if !ValidText(it.Value, maxItemChars) || (it.Key != "" && injectionPattern.MatchString(it.Key)) {
				rej.Items++
				continue
			}
			it.Sources = ev.filterSources(it.Sources, &rej)
			if len(it.Sources) == 0 {
				it.Sources = ev.locate(it.Value)
			}
			if len(it.Sources) == 0 {
				rej.Items++
				continue
			}
			*dst = append(*dst, it)
		}
	}

	for _, c := range ontology.Conflicts {
		var values []legal.ConflictValue
		for _, v := range c.Values {
			v.Value = strings.TrimSpace(v.Value)
			v.Sources = ev.filterSources(v.Sources, &rej)
			if len(v.Sources) == 0 {
				v.Sources = ev.locate(v.Value)
			}
			if v.Value == "" || len(v.Sources) == 0 {
				continue
			}
			values = append(values, v)
		}
		if len(values) < 2 || strings.TrimSpace(c.Fact) == "" {
			rej.Items++
			continue
		}
		res.Ontology.Conflicts = append(res.Ontology.Conflicts, legal.Conflict{
			Category: c.Category,
			Fact:     strings.TrimSpace(c.Fact),
			Values:   values,
		})
	}
	return res, rej
}
