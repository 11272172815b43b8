package tidy

import (
	"slices"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/core/spec"
	"github.com/FocuswithJustin/tidydraws/internal/logging"
)

// GatherDraws extracts the variables named by specs into a long table with
// one row per draw and variable cell: identity columns, dimension columns,
// then .variable and .value.
//
// Rows from different specs are stacked; a dimension one spec lacks is left
// empty on that spec's rows.
func GatherDraws(t *draws.Table, specs []string, opts Options) (*draws.Table, error) {
	parsed, err := parseSpecs(specs, opts)
	if err != nil {
		return nil, err
	}
	return Gather(t, parsed, opts)
}

// Gather is GatherDraws over already parsed specs.
func Gather(t *draws.Table, specs []*spec.Spec, opts Options) (*draws.Table, error) {
	if len(specs) == 0 {
		return nil, errors.NewValidation("specs", "at least one variable spec is required")
	}
	for _, sp := range specs {
		if sp.HasWide() {
			return nil, errors.NewUnsupported("wide dimension syntax", "gather does not pivot; drop \"| "+sp.Wide+"\" from "+sp.Source())
		}
		if sp.DotsCount() > 0 {
			return nil, errors.NewUnsupported("\"..\" dimensions", "gather needs a name for every dimension in "+sp.Source())
		}
	}
	if err := draws.CheckUniqueIdentity(t); err != nil {
		return nil, err
	}
	sep, err := opts.separator()
	if err != nil {
		return nil, err
	}

	parts := make([]*draws.Table, 0, len(specs))
	var dims []string
	for _, sp := range specs {
		ix, err := indexColumns(t, sp, sep)
		if err != nil {
			return nil, errors.Wrapf(err, "gather %s", sp.Source())
		}
		parts = append(parts, ix.gathered(t))
		for _, d := range ix.dimNames {
			if !slices.Contains(dims, d) {
				dims = append(dims, d)
			}
		}
	}

	out, err := draws.BindFill(parts...)
	if err != nil {
		return nil, err
	}
	lead := append(append([]string{}, draws.IdentityColumns...), dims...)
	out = out.Reorder(append(lead, draws.VariableColumn, draws.ValueColumn)...)
	logging.ReshapeEvent("gather", sources(specs), out.NumRows(), out.NumCols())
	return out, nil
}

// gathered emits one row per present variable cell and draw, ordered by
// variable, index tuple, then source row.
func (ix *indexed) gathered(t *draws.Table) *draws.Table {
	n := t.NumRows()
	size := 0
	for _, v := range ix.variables {
		size += len(ix.cells[v]) * n
	}

	ids := make([]*draws.Builder, len(draws.IdentityColumns))
	srcIDs := make([]*draws.Column, len(draws.IdentityColumns))
	for i, name := range draws.IdentityColumns {
		ids[i] = draws.NewBuilder(name, draws.Int, size)
		srcIDs[i] = t.MustColumn(name)
	}
	dimCols := make([]*draws.Builder, len(ix.dimNames))
	for p, name := range ix.dimNames {
		dimCols[p] = draws.NewBuilder(name, ix.dimKinds[p], size)
	}
	variable := draws.NewBuilder(draws.VariableColumn, draws.String, size)
	value := draws.NewBuilder(draws.ValueColumn, draws.Float, size)

	for _, v := range ix.variables {
		for k, tup := range ix.tuples {
			src, ok := ix.cells[v][k]
			if !ok {
				continue
			}
			for r := 0; r < n; r++ {
				for i := range ids {
					ids[i].AppendFrom(srcIDs[i], r)
				}
				for p := range dimCols {
					dimCols[p].AppendString(tup[p])
				}
				variable.AppendString(v)
				value.AppendFrom(src, r)
			}
		}
	}

	cols := make([]*draws.Column, 0, len(ids)+len(dimCols)+2)
	for _, b := range ids {
		cols = append(cols, b.Column())
	}
	for _, b := range dimCols {
		cols = append(cols, b.Column())
	}
	cols = append(cols, variable.Column(), value.Column())
	return draws.MustNew(cols...)
}
