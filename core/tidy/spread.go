package tidy

import (
	"regexp"
	"slices"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/core/spec"
	"github.com/FocuswithJustin/tidydraws/internal/logging"
)

// SpreadDraws extracts the variables named by specs from a draws table into
// a tidy table with one column per dimension and one column per variable.
//
// Frames from several specs are joined on the draw-identity columns and any
// dimensions they share. Rows are ordered by dimension, then draw.
func SpreadDraws(t *draws.Table, specs []string, opts Options) (*draws.Table, error) {
	parsed, err := parseSpecs(specs, opts)
	if err != nil {
		return nil, err
	}
	return Spread(t, parsed, opts)
}

// Spread is SpreadDraws over already parsed specs.
func Spread(t *draws.Table, specs []*spec.Spec, opts Options) (*draws.Table, error) {
	if len(specs) == 0 {
		return nil, errors.NewValidation("specs", "at least one variable spec is required")
	}
	if err := draws.CheckUniqueIdentity(t); err != nil {
		return nil, err
	}
	sep, err := opts.separator()
	if err != nil {
		return nil, err
	}

	var acc frame
	for i, sp := range specs {
		f, err := spreadOne(t, sp, sep)
		if err != nil {
			return nil, errors.Wrapf(err, "spread %s", sp.Source())
		}
		if i == 0 {
			acc = f
			continue
		}
		if acc, err = join(acc, f); err != nil {
			return nil, errors.Wrapf(err, "spread %s", sp.Source())
		}
	}
	if err := checkDraws(t, acc.t); err != nil {
		return nil, err
	}

	lead := append(append([]string{}, draws.IdentityColumns...), acc.dims...)
	out := acc.t.Reorder(lead...)
	out, err = out.SortBy(append(append([]string{}, acc.dims...), draws.IdentityColumns...)...)
	if err != nil {
		return nil, err
	}
	logging.ReshapeEvent("spread", sources(specs), out.NumRows(), out.NumCols())
	return out, nil
}

// spreadOne builds the frame for a single spec, pivoting ".." and "| w"
// dimensions into columns.
func spreadOne(t *draws.Table, sp *spec.Spec, sep *regexp.Regexp) (frame, error) {
	ix, err := indexColumns(t, sp, sep)
	if err != nil {
		return frame{}, err
	}
	f := frame{t: ix.long(t), values: append([]string{}, ix.variables...)}

	var dots []string
	for i, d := range sp.Dimensions {
		if d == spec.WideDots {
			dots = append(dots, ix.dimNames[i])
		} else {
			f.dims = append(f.dims, d)
		}
	}

	if len(dots) > 0 {
		if f, err = widen(f, dots, dotsColumnName); err != nil {
			return frame{}, err
		}
	}
	if sp.HasWide() {
		multi := len(f.values) > 1
		name := func(value string, levels []string) string {
			if multi {
				return value + "." + levels[0]
			}
			return levels[0]
		}
		if f, err = widen(f, []string{sp.Wide}, name); err != nil {
			return frame{}, err
		}
	}
	return f, nil
}

// widen pivots the namesFrom dimensions of f into value columns.
func widen(f frame, namesFrom []string, nameFn func(string, []string) string) (frame, error) {
	var dims []string
	for _, d := range f.dims {
		if !slices.Contains(namesFrom, d) {
			dims = append(dims, d)
		}
	}
	idCols := append(append([]string{}, draws.IdentityColumns...), dims...)
	t, err := pivotWider(f.t, idCols, namesFrom, f.values, nameFn)
	if err != nil {
		return frame{}, err
	}
	out := frame{t: t, dims: dims}
	for _, n := range t.Names() {
		if !slices.Contains(idCols, n) {
			out.values = append(out.values, n)
		}
	}
	return out, nil
}
