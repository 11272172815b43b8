// Package draws provides the columnar table that posterior draws are stored
// and reshaped in.
//
// A draws table in "wide" form has one row per draw: the draw-identity
// columns (.chain, .iteration, .draw) followed by one Float column per model
// variable cell, named like "b[1,2]". Tidy tables produced by the reshape
// engine have identity columns, then one column per index dimension, then
// value columns.
package draws

import (
	"fmt"
	"sort"
	"strings"

	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// Table is an ordered set of uniquely named, equal-length columns.
type Table struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New creates a table from columns. Column names must be unique and all
// columns must have the same length.
func New(cols ...*Column) (*Table, error) {
	t := &Table{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c == nil {
			return nil, errors.NewValidation("columns", fmt.Sprintf("column %d is nil", i))
		}
		if _, dup := t.index[c.name]; dup {
			return nil, errors.NewDuplicate("column", c.name)
		}
		if i == 0 {
			t.nrows = c.Len()
		} else if c.Len() != t.nrows {
			return nil, errors.NewValidation(c.name,
				fmt.Sprintf("column has %d rows, expected %d", c.Len(), t.nrows))
		}
		t.index[c.name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is like New but panics on error.
// This is intended for tests and package-level fixtures.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(fmt.Sprintf("draws: %v", err))
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Columns returns the columns in order. The slice is a copy.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// MustColumn looks up a column by name and panics if it is absent.
func (t *Table) MustColumn(name string) *Column {
	c, ok := t.Column(name)
	if !ok {
		panic(fmt.Sprintf("draws: no column %q", name))
	}
	return c
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Missing returns the subset of names that are not columns of t, in order.
func (t *Table) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	if missing := t.Missing(names...); len(missing) > 0 {
		return nil, errors.NewMissingColumns("selected", missing...)
	}
	cols := make([]*Column, len(names))
	for i, n := range names {
		cols[i] = t.cols[t.index[n]]
	}
	return New(cols...)
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	cols := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !skip[c.name] {
			cols = append(cols, c)
		}
	}
	return &Table{cols: cols, index: indexOf(cols), nrows: t.nrowsFor(cols)}
}

// Take returns a table holding the given rows, in order. Rows may repeat.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(rows)
	}
	return &Table{cols: cols, index: indexOf(cols), nrows: len(rows)}
}

// Rename returns a table with column from renamed to to.
func (t *Table) Rename(from, to string) (*Table, error) {
	i, ok := t.index[from]
	if !ok {
		return nil, errors.NewMissingColumns("renamed", from)
	}
	if from == to {
		return t, nil
	}
	if t.Has(to) {
		return nil, errors.NewDuplicate("column", to)
	}
	cols := t.Columns()
	cols[i] = cols[i].Renamed(to)
	return &Table{cols: cols, index: indexOf(cols), nrows: t.nrows}, nil
}

// With returns a table with col appended, or replacing the column of the
// same name in place.
func (t *Table) With(col *Column) (*Table, error) {
	if len(t.cols) > 0 && col.Len() != t.nrows {
		return nil, errors.NewValidation(col.name,
			fmt.Sprintf("column has %d rows, expected %d", col.Len(), t.nrows))
	}
	cols := t.Columns()
	if i, ok := t.index[col.name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return &Table{cols: cols, index: indexOf(cols), nrows: col.Len()}, nil
}

// Reorder returns a table whose leading columns are the given names, in
// order, followed by the remaining columns in their existing order. Names
// that are not columns are ignored.
func (t *Table) Reorder(first ...string) *Table {
	placed := make(map[string]bool, len(first))
	cols := make([]*Column, 0, len(t.cols))
	for _, n := range first {
		if i, ok := t.index[n]; ok && !placed[n] {
			cols = append(cols, t.cols[i])
			placed[n] = true
		}
	}
	for _, c := range t.cols {
		if !placed[c.name] {
			cols = append(cols, c)
		}
	}
	return &Table{cols: cols, index: indexOf(cols), nrows: t.nrows}
}

// SortBy returns a table stably sorted by the named columns.
func (t *Table) SortBy(names ...string) (*Table, error) {
	if missing := t.Missing(names...); len(missing) > 0 {
		return nil, errors.NewMissingColumns("sort", missing...)
	}
	keys := make([]*Column, len(names))
	for i, n := range names {
		keys[i] = t.cols[t.index[n]]
	}
	rows := make([]int, t.nrows)
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		for _, k := range keys {
			if c := k.compare(rows[a], rows[b]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return t.Take(rows), nil
}

// RowKey joins the keys of the named columns at row into one comparable
// string. Names must be columns of t.
func (t *Table) RowKey(row int, names []string) string {
	var sb strings.Builder
	for i, n := range names {
		if i > 0 {
			sb.WriteByte(0x1f)
		}
		sb.WriteString(t.cols[t.index[n]].Key(row))
	}
	return sb.String()
}

// Bind concatenates the rows of tables with the same column set. Column
// order follows the first table. Columns whose kinds differ are promoted
// (Int to Float to String).
func Bind(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return MustNew(), nil
	}
	first := tables[0]
	for i, tb := range tables[1:] {
		if tb.NumCols() != first.NumCols() {
			return nil, errors.NewValidation("bind",
				fmt.Sprintf("table %d has %d columns, expected %d", i+1, tb.NumCols(), first.NumCols()))
		}
		if missing := tb.Missing(first.Names()...); len(missing) > 0 {
			return nil, errors.NewMissingColumns("bind", missing...)
		}
	}
	return bind(first.Names(), tables, false)
}

// BindFill concatenates the rows of tables whose column sets may differ.
// The output has the union of columns in first-seen order; cells of a column
// a table lacks are missing (NaN for Float, "" for String). An Int column
// that needs filling is promoted to String.
func BindFill(tables ...*Table) (*Table, error) {
	var names []string
	seen := make(map[string]bool)
	for _, tb := range tables {
		for _, n := range tb.Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return bind(names, tables, true)
}

func bind(names []string, tables []*Table, fill bool) (*Table, error) {
	total := 0
	for _, tb := range tables {
		total += tb.nrows
	}
	cols := make([]*Column, len(names))
	for i, n := range names {
		kind, gaps := Int, false
		set := false
		for _, tb := range tables {
			c, ok := tb.Column(n)
			if !ok {
				gaps = gaps || tb.nrows > 0
				continue
			}
			if !set || c.kind > kind {
				kind = c.kind
			}
			set = true
		}
		if fill && gaps && kind == Int {
			kind = String
		}
		out := newEmpty(n, kind, total)
		for _, tb := range tables {
			c, ok := tb.Column(n)
			for r := 0; r < tb.nrows; r++ {
				if ok {
					out.appendFrom(c, r)
				} else {
					out.appendZero()
				}
			}
		}
		cols[i] = out
	}
	return New(cols...)
}

func (t *Table) nrowsFor(cols []*Column) int {
	if len(cols) == 0 {
		return 0
	}
	return t.nrows
}

func indexOf(cols []*Column) map[string]int {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c.name] = i
	}
	return idx
}
