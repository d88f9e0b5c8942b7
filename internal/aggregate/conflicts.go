package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dgallion1/lexgest/internal/legal"
)

// CategorySummary marks conflicts found between summary points rather than
// ontology items.
const CategorySummary = "summary"

// templateSimilarity is how alike two statements must be once their numbers
// are masked to count as the same fact.
const templateSimilarity = 0.85

// signatureCategories hold statements whose conflicting values are numbers
// inside otherwise matching text.
var signatureCategories = []string{
	legal.CategoryObligations,
	legal.CategoryRights,
	legal.CategoryConditions,
	legal.CategoryClauses,
}

type candidate struct {
	key     string
	value   string
	sources []string
	fp      fingerprint
	tmpl    string
}

func newCandidate(key, value string, sources []string) candidate {
	fp := newFingerprint(value)
	return candidate{key: key, value: value, sources: sources, fp: fp, tmpl: mask(fp.norm)}
}

// valueKey identifies a distinct value: its numbers when it has any,
// otherwise its normalized text.
func (c candidate) valueKey() string {
	if c.fp.sig != "" {
		return c.fp.sig
	}
	return c.fp.norm
}

// detectConflicts finds contradictory items left after deduplication.
// Dates conflict when the same event carries different values, definitions
// when the same term carries different numbers, and statements when their
// wording matches but their numbers do not.
func detectConflicts(o *legal.Ontology, order docOrder) []legal.Conflict {
	var out []legal.Conflict
	out = append(out, keyedConflicts(legal.CategoryDates, o.Dates, false, order)...)
	out = append(out, keyedConflicts(legal.CategoryDefinitions, o.Definitions, true, order)...)
	for _, name := range signatureCategories {
		cands := make([]candidate, 0, len(*o.Category(name)))
		for _, it := range *o.Category(name) {
			cands = append(cands, newCandidate(it.Key, it.Value, it.Sources))
		}
		out = append(out, signatureConflicts(name, cands, order)...)
	}
	return out
}

// extractionConflicts reports summary points that disagree on numbers. The
// points themselves stay in the summary.
func extractionConflicts(exts []legal.Extraction, order docOrder) []legal.Conflict {
	cands := make([]candidate, 0, len(exts))
	for _, e := range exts {
		cands = append(cands, newCandidate("", e.Text, e.SourceParagraphs))
	}
	return signatureConflicts(CategorySummary, cands, order)
}

func keyedConflicts(category string, items []legal.Item, numericOnly bool, order docOrder) []legal.Conflict {
	groups := map[string][]candidate{}
	var keys []string
	for _, it := range items {
		k := normalize(it.Key)
		if k == "" {
			continue
		}
		c := newCandidate(it.Key, it.Value, it.Sources)
		if numericOnly && c.fp.sig == "" {
			continue
		}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], c)
	}
	var out []legal.Conflict
	for _, k := range keys {
		g := groups[k]
		if c, ok := buildConflict(category, g[0].key, g, !numericOnly, order); ok {
			out = append(out, c)
		}
	}
	return out
}

func signatureConflicts(category string, cands []candidate, order docOrder) []legal.Conflict {
	var clusters [][]candidate
next:
	for _, c := range cands {
		if c.fp.sig == "" {
			continue
		}
		for i, cl := range clusters {
			if related(cl[0], c) {
				clusters[i] = append(cl, c)
				continue next
			}
		}
		clusters = append(clusters, []candidate{c})
	}
	var out []legal.Conflict
	for _, cl := range clusters {
		fact := cl[0].key
		if fact == "" {
			values := make([]string, len(cl))
			for i, c := range cl {
				values[i] = c.value
			}
			fact = factLabel(values)
		}
		if c, ok := buildConflict(category, fact, cl, false, order); ok {
			out = append(out, c)
		}
	}
	return out
}

// related reports whether two statements describe the same fact, ignoring
// their numbers.
func related(a, b candidate) bool {
	if a.key != "" && b.key != "" && normalize(a.key) == normalize(b.key) {
		return true
	}
	if jaccard(a.tmpl, b.tmpl) < 0.5 {
		return false
	}
	return similarity(a.tmpl, b.tmpl) >= templateSimilarity
}

// buildConflict groups candidates by distinct value, compared by numbers or,
// with byText, by whole normalized text. It reports false when fewer than
// two distinct values remain.
func buildConflict(category, fact string, cands []candidate, byText bool, order docOrder) (legal.Conflict, bool) {
	var values []legal.ConflictValue
	index := map[string]int{}
	for _, c := range cands {
		vk := c.valueKey()
		if byText {
			vk = c.fp.norm
		}
		if i, ok := index[vk]; ok {
			values[i].Sources = order.union(values[i].Sources, c.sources)
			continue
		}
		index[vk] = len(values)
		values = append(values, legal.ConflictValue{Value: c.value, Sources: order.union(nil, c.sources)})
	}
	if len(values) < 2 {
		return legal.Conflict{}, false
	}
	return legal.Conflict{Category: category, Fact: fact, Values: values}, true
}

// factLabel describes the disputed fact by masking the numbers that differ
// between values, e.g. "The Buyer shall pay $… within 30 days".
func factLabel(values []string) string {
	base := values[0]
	locs := numberRe.FindAllStringIndex(base, -1)
	nums := make([][]string, len(values))
	for i, v := range values {
		nums[i] = numberRe.FindAllString(v, -1)
	}
	var sb strings.Builder
	last := 0
	for pos, loc := range locs {
		sb.WriteString(base[last:loc[0]])
		if agreesAt(nums, pos) {
			sb.WriteString(base[loc[0]:loc[1]])
		} else {
			sb.WriteString("…")
		}
		last = loc[1]
	}
	sb.WriteString(base[last:])
	return strings.TrimRight(strings.TrimSpace(sb.String()), ".")
}

func agreesAt(nums [][]string, pos int) bool {
	for _, n := range nums[1:] {
		if len(n) != len(nums[0]) || n[pos] != nums[0][pos] {
			return false
		}
	}
	return true
}

// mergeConflicts joins conflicts that share at least two values, or the same
// fact in the same category, so the same dispute found in the summary and in
// the ontology is reported once.
func mergeConflicts(list []legal.Conflict, order docOrder) []legal.Conflict {
	var out []legal.Conflict
next:
	for _, c := range list {
		if len(c.Values) < 2 {
			continue
		}
		for i := range out {
			if sameDispute(out[i], c) {
				out[i] = joinConflicts(out[i], c, order)
				continue next
			}
		}
		c.Values = slices.Clone(c.Values)
		for i := range c.Values {
			c.Values[i].Sources = order.union(nil, c.Values[i].Sources)
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b legal.Conflict) int {
		return cmp.Compare(order.first(a.Values[0].Sources), order.first(b.Values[0].Sources))
	})
	return out
}

func conflictValueKey(category string, v legal.ConflictValue) string {
	if category == legal.CategoryDates {
		return normalize(v.Value)
	}
	return newCandidate("", v.Value, nil).valueKey()
}

func sameDispute(a, b legal.Conflict) bool {
	if a.Category == b.Category && normalize(a.Fact) == normalize(b.Fact) {
		return true
	}
	keys := make(map[string]bool, len(a.Values))
	for _, v := range a.Values {
		keys[conflictValueKey(a.Category, v)] = true
	}
	shared := 0
	for _, v := range b.Values {
		if keys[conflictValueKey(a.Category, v)] {
			shared++
		}
	}
	return shared >= 2
}

func joinConflicts(a, b legal.Conflict, order docOrder) legal.Conflict {
	if a.Category == CategorySummary && b.Category != "" && b.Category != CategorySummary {
		a.Category, a.Fact = b.Category, b.Fact
	}
	for _, v := range b.Values {
		k := conflictValueKey(a.Category, v)
		found := false
		for i := range a.Values {
			if conflictValueKey(a.Category, a.Values[i]) == k {
				a.Values[i].Sources = order.union(a.Values[i].Sources, v.Sources)
				found = true
				break
			}
		}
		if !found {
			a.Values = append(a.Values, legal.ConflictValue{Value: v.Value, Sources: order.union(nil, v.Sources)})
		}
	}
	return a
}

// stripConflicted removes items that assert one side of a conflict in the
// same category, so no category silently picks one of the values. An item is
// a side when it carries the disputed key or matches a value by masked
// wording. It is also a side when it states a disputed number and cites a
// paragraph of that dispute, or when it cites paragraphs behind two values.
func stripConflicted(o *legal.Ontology) {
	byCategory := map[string][]legal.Conflict{}
	for _, c := range o.Conflicts {
		if o.Category(c.Category) == nil {
			continue
		}
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}
	for name, conflicts := range byCategory {
		cat := o.Category(name)
		*cat = slices.DeleteFunc(*cat, func(it legal.Item) bool {
			return slices.ContainsFunc(conflicts, func(c legal.Conflict) bool {
				return assertsSide(c, it)
			})
		})
		if len(*cat) == 0 {
			*cat = nil
		}
	}
}

func assertsSide(c legal.Conflict, it legal.Item) bool {
	item := newCandidate(it.Key, it.Value, it.Sources)
	if !slices.Contains(signatureCategories, c.Category) {
		// Dates and definitions are disputed per key.
		if k := normalize(it.Key); k != "" && k == normalize(c.Fact) {
			return true
		}
		return slices.ContainsFunc(c.Values, func(v legal.ConflictValue) bool {
			return normalize(v.Value) == item.fp.norm
		})
	}
	sides := 0
	for _, v := range c.Values {
		value := newCandidate(c.Fact, v.Value, v.Sources)
		if item.fp.norm == value.fp.norm || related(value, item) {
			return true
		}
		shared := slices.ContainsFunc(it.Sources, func(id string) bool { return slices.Contains(v.Sources, id) })
		if !shared {
			continue
		}
		if item.fp.sig != "" && item.fp.sig == value.fp.sig {
			return true
		}
		sides++
	}
	return sides >= 2
}
