package tidy

import (
	"fmt"
	"math/rand/v2"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// SampleDraws keeps every row of n distinct draws chosen at random. The same
// seed always selects the same draws. Row order is preserved.
func SampleDraws(t *draws.Table, n int, seed uint64) (*draws.Table, error) {
	if err := draws.CheckColumns(t, "draw identity", draws.DrawColumn); err != nil {
		return nil, err
	}
	dc := t.MustColumn(draws.DrawColumn)

	var ids []string
	seen := make(map[string]bool)
	for r := 0; r < t.NumRows(); r++ {
		if k := dc.Key(r); !seen[k] {
			seen[k] = true
			ids = append(ids, k)
		}
	}
	if n < 1 || n > len(ids) {
		return nil, &errors.ValidationError{
			Field:   "n",
			Value:   fmt.Sprint(n),
			Message: fmt.Sprintf("cannot sample %d of %d draws", n, len(ids)),
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	keep := make(map[string]bool, n)
	for _, i := range rng.Perm(len(ids))[:n] {
		keep[ids[i]] = true
	}
	var rows []int
	for r := 0; r < t.NumRows(); r++ {
		if keep[dc.Key(r)] {
			rows = append(rows, r)
		}
	}
	return t.Take(rows), nil
}
