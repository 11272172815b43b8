package tidy

import (
	"fmt"
	"math"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/core/spec"
	"github.com/FocuswithJustin/tidydraws/internal/logging"
)

// UnspreadDraws is the inverse of SpreadDraws: it rebuilds one column per
// variable cell (e.g. "b[1,2]") from dimension and value columns, with one
// row per draw.
//
// Rows repeated by a join carry the same value and collapse; conflicting
// values for one cell and draw are a DuplicateError. Missing (NaN) values
// are skipped.
func UnspreadDraws(t *draws.Table, specs []string, opts Options) (*draws.Table, error) {
	parsed, err := parseSpecs(specs, opts)
	if err != nil {
		return nil, err
	}
	if err := checkInvertible("unspread", parsed); err != nil {
		return nil, err
	}
	if err := draws.CheckIdentity(t); err != nil {
		return nil, err
	}

	wb := newWideBuilder(t)
	for _, sp := range parsed {
		if err := draws.CheckColumns(t, "spread", append(append([]string{}, sp.Dimensions...), sp.Variables...)...); err != nil {
			return nil, errors.Wrapf(err, "unspread %s", sp.Source())
		}
		dims := columns(t, sp.Dimensions)
		for _, v := range sp.Variables {
			vals := t.MustColumn(v)
			for r := 0; r < t.NumRows(); r++ {
				if err := wb.set(r, v, levelsAt(dims, r), vals.Float(r)); err != nil {
					return nil, errors.Wrapf(err, "unspread %s", sp.Source())
				}
			}
		}
	}

	out, err := wb.table(opts.DropIndices)
	if err != nil {
		return nil, err
	}
	logging.ReshapeEvent("unspread", sources(parsed), out.NumRows(), out.NumCols())
	return out, nil
}

// UngatherDraws is the inverse of GatherDraws: it rebuilds variable-cell
// columns from a long table with .variable and .value columns.
func UngatherDraws(t *draws.Table, specs []string, opts Options) (*draws.Table, error) {
	parsed, err := parseSpecs(specs, opts)
	if err != nil {
		return nil, err
	}
	if err := checkInvertible("ungather", parsed); err != nil {
		return nil, err
	}
	if err := draws.CheckIdentity(t); err != nil {
		return nil, err
	}
	if err := draws.CheckColumns(t, "gathered", draws.VariableColumn, draws.ValueColumn); err != nil {
		return nil, err
	}

	names := t.MustColumn(draws.VariableColumn)
	vals := t.MustColumn(draws.ValueColumn)
	wb := newWideBuilder(t)
	for _, sp := range parsed {
		if err := draws.CheckColumns(t, "dimension", sp.Dimensions...); err != nil {
			return nil, errors.Wrapf(err, "ungather %s", sp.Source())
		}
		dims := columns(t, sp.Dimensions)
		found := make(map[string]bool, len(sp.Variables))
		for _, v := range sp.Variables {
			found[v] = false
		}
		for r := 0; r < t.NumRows(); r++ {
			v := names.Key(r)
			if _, ok := found[v]; !ok {
				continue
			}
			found[v] = true
			if err := wb.set(r, v, levelsAt(dims, r), vals.Float(r)); err != nil {
				return nil, errors.Wrapf(err, "ungather %s", sp.Source())
			}
		}
		for _, v := range sp.Variables {
			if !found[v] {
				return nil, errors.NewNotFound("variable", fmt.Sprintf("%s (no %s rows)", v, draws.VariableColumn))
			}
		}
	}

	out, err := wb.table(opts.DropIndices)
	if err != nil {
		return nil, err
	}
	logging.ReshapeEvent("ungather", sources(parsed), out.NumRows(), out.NumCols())
	return out, nil
}

// checkInvertible rejects spec syntax whose column names cannot be rebuilt.
func checkInvertible(op string, specs []*spec.Spec) error {
	for _, sp := range specs {
		switch {
		case sp.HasWide():
			return errors.NewUnsupported("wide dimension syntax", op+" needs long input; drop \"| "+sp.Wide+"\" from "+sp.Source())
		case sp.DotsCount() > 0:
			return errors.NewUnsupported("\"..\" dimensions", op+" needs a name for every dimension in "+sp.Source())
		case sp.Regex:
			return errors.NewUnsupported("regex variable names", op+" needs literal variable names")
		}
	}
	return nil
}

func columns(t *draws.Table, names []string) []*draws.Column {
	cols := make([]*draws.Column, len(names))
	for i, n := range names {
		cols[i] = t.MustColumn(n)
	}
	return cols
}

func levelsAt(cols []*draws.Column, r int) []string {
	levels := make([]string, len(cols))
	for i, c := range cols {
		levels[i] = c.Key(r)
	}
	return levels
}

// wideBuilder collects cells keyed by draw and variable-cell name.
type wideBuilder struct {
	src       *draws.Table
	drawIndex map[string]int
	firstRows []int
	cells     []*wideCell
	cellIndex map[string]int
}

type wideCell struct {
	variable string
	levels   []string
	values   map[int]float64 // draw -> value
}

func newWideBuilder(src *draws.Table) *wideBuilder {
	return &wideBuilder{
		src:       src,
		drawIndex: make(map[string]int),
		cellIndex: make(map[string]int),
	}
}

// set records value for the cell variable[levels] at the draw of source row r.
func (wb *wideBuilder) set(r int, variable string, levels []string, value float64) error {
	key := wb.src.RowKey(r, draws.IdentityColumns)
	d, ok := wb.drawIndex[key]
	if !ok {
		d = len(wb.firstRows)
		wb.drawIndex[key] = d
		wb.firstRows = append(wb.firstRows, r)
	}
	if math.IsNaN(value) {
		return nil
	}

	name := cellName(variable, levels)
	c, ok := wb.cellIndex[name]
	if !ok {
		c = len(wb.cells)
		wb.cellIndex[name] = c
		wb.cells = append(wb.cells, &wideCell{variable: variable, levels: levels, values: make(map[int]float64)})
	}
	cell := wb.cells[c]
	if prev, dup := cell.values[d]; dup && prev != value {
		return &errors.DuplicateError{
			What:   "variable/dimension combination",
			Key:    name,
			Detail: fmt.Sprintf("draw %s has values %s and %s", key, draws.FormatFloat(prev), draws.FormatFloat(value)),
		}
	}
	cell.values[d] = value
	return nil
}

// table renders the collected cells, one row per draw in identity order.
// Cells are grouped by variable in first-seen order, then sorted by index.
func (wb *wideBuilder) table(dropIndices bool) (*draws.Table, error) {
	var variables []string
	byVariable := make(map[string][]*wideCell)
	for _, c := range wb.cells {
		if _, ok := byVariable[c.variable]; !ok {
			variables = append(variables, c.variable)
		}
		byVariable[c.variable] = append(byVariable[c.variable], c)
	}

	var cols []*draws.Column
	for _, id := range draws.IdentityColumns {
		cols = append(cols, wb.src.MustColumn(id).Take(wb.firstRows))
	}
	for _, v := range variables {
		cells := byVariable[v]
		tuples := make([][]string, len(cells))
		for i, c := range cells {
			tuples[i] = c.levels
		}
		for _, i := range sortedTupleOrder(tuples) {
			c := cells[i]
			vals := make([]float64, len(wb.firstRows))
			for d := range vals {
				if x, ok := c.values[d]; ok {
					vals[d] = x
				} else {
					vals[d] = missing
				}
			}
			cols = append(cols, draws.FloatColumn(cellName(c.variable, c.levels), vals))
		}
	}

	out, err := draws.New(cols...)
	if err != nil {
		return nil, err
	}
	if out, err = out.SortBy(draws.IdentityColumns...); err != nil {
		return nil, err
	}
	if dropIndices {
		out = out.Drop(draws.IdentityColumns...)
	}
	return out, nil
}
