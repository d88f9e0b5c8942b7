package aggregate

import (
	"cmp"
	"slices"

	"github.com/dgallion1/lexgest/internal/legal"
)

// docOrder maps paragraph IDs to their position in the run.
type docOrder map[string]int

func newDocOrder(paras []legal.Paragraph) docOrder {
	o := make(docOrder, len(paras))
	for i, p := range paras {
		o[p.ID] = i
	}
	return o
}

// pos returns the position of id, placing unknown IDs last.
func (o docOrder) pos(id string) int {
	if i, ok := o[id]; ok {
		return i
	}
	return len(o)
}

// first returns the earliest position among ids.
func (o docOrder) first(ids []string) int {
	best := len(o) + 1
	for _, id := range ids {
		best = min(best, o.pos(id))
	}
	return best
}

// union merges b into a without duplicates, in document order.
func (o docOrder) union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range slices.Concat(a, b) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	slices.SortStableFunc(out, func(x, y string) int {
		if c := cmp.Compare(o.pos(x), o.pos(y)); c != 0 {
			return c
		}
		return cmp.Compare(x, y)
	})
	return out
}

func (o docOrder) known(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := o[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
