package tidy

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// RecoverLevels replaces 1-based integer index columns with named levels,
// e.g. levels["group"] = ["control", "treated"] turns group 2 into "treated".
func RecoverLevels(t *draws.Table, levels map[string][]string) (*draws.Table, error) {
	dims := make([]string, 0, len(levels))
	for d := range levels {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	if err := draws.CheckColumns(t, "index", dims...); err != nil {
		return nil, err
	}

	out := t
	for _, d := range dims {
		col := t.MustColumn(d)
		if col.Kind() != draws.Int {
			return nil, errors.NewValidation(d, fmt.Sprintf("index column is %s, want int", col.Kind()))
		}
		names := levels[d]
		recovered := make([]string, col.Len())
		for r, idx := range col.Ints() {
			if idx < 1 || idx > len(names) {
				return nil, &errors.ValidationError{
					Field:   d,
					Value:   fmt.Sprint(idx),
					Message: fmt.Sprintf("index %d out of range for %d levels", idx, len(names)),
				}
			}
			recovered[r] = names[idx-1]
		}
		var err error
		if out, err = out.With(draws.StringColumn(d, recovered)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
