package tidy

import (
	"fmt"
	"slices"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// join inner-joins two frames on the identity columns plus the dimensions
// they share. Frames with disjoint dimensions yield the cross product of
// their levels within each draw.
func join(a, b frame) (frame, error) {
	inA := make(map[string]bool)
	for _, d := range a.dims {
		inA[d] = true
	}
	for _, v := range a.values {
		inA[v] = true
	}
	on := append([]string{}, draws.IdentityColumns...)
	for _, d := range b.dims {
		if slices.Contains(a.dims, d) {
			on = append(on, d)
		}
	}
	for _, d := range b.dims {
		if slices.Contains(a.values, d) {
			return frame{}, &errors.DuplicateError{What: "column name", Key: d, Detail: "used as both a value and a dimension"}
		}
	}
	for _, v := range b.values {
		if inA[v] {
			return frame{}, &errors.DuplicateError{What: "column name", Key: v, Detail: "already a column of an earlier spec"}
		}
	}

	right := make(map[string][]int, b.t.NumRows())
	for r := 0; r < b.t.NumRows(); r++ {
		k := b.t.RowKey(r, on)
		right[k] = append(right[k], r)
	}
	var leftRows, rightRows []int
	for r := 0; r < a.t.NumRows(); r++ {
		for _, rr := range right[a.t.RowKey(r, on)] {
			leftRows = append(leftRows, r)
			rightRows = append(rightRows, rr)
		}
	}

	cols := a.t.Take(leftRows).Columns()
	skip := make(map[string]bool, len(on))
	for _, n := range on {
		skip[n] = true
	}
	for _, c := range b.t.Columns() {
		if !skip[c.Name()] {
			cols = append(cols, c.Take(rightRows))
		}
	}
	t, err := draws.New(cols...)
	if err != nil {
		return frame{}, err
	}

	out := frame{t: t, dims: append([]string{}, a.dims...), values: append(append([]string{}, a.values...), b.values...)}
	for _, d := range b.dims {
		if !slices.Contains(out.dims, d) {
			out.dims = append(out.dims, d)
		}
	}
	return out, nil
}

// checkDraws fails when a draw of src has no row in out. Draws are keyed by
// the full identity triple so per-chain draw numbering is handled.
func checkDraws(src, out *draws.Table) error {
	kept := make(map[string]bool, out.NumRows())
	for r := 0; r < out.NumRows(); r++ {
		kept[out.RowKey(r, draws.IdentityColumns)] = true
	}
	for r := 0; r < src.NumRows(); r++ {
		if !kept[src.RowKey(r, draws.IdentityColumns)] {
			id := draws.IdentityString(src, r)
			return &errors.ValidationError{
				Field:   "draw",
				Value:   id,
				Message: fmt.Sprintf("draw %s has no rows after joining specs; shared dimensions have no common levels", id),
			}
		}
	}
	return nil
}
