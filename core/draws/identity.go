package draws

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// Reserved column names.
const (
	ChainColumn     = ".chain"
	IterationColumn = ".iteration"
	DrawColumn      = ".draw"
	VariableColumn  = ".variable"
	ValueColumn     = ".value"
)

// IdentityColumns are the draw-identity columns, in output order.
var IdentityColumns = []string{ChainColumn, IterationColumn, DrawColumn}

// IsIdentity reports whether name is a draw-identity column.
func IsIdentity(name string) bool {
	return name == ChainColumn || name == IterationColumn || name == DrawColumn
}

// IsReserved reports whether name is an identity column or one of the
// long-format .variable/.value columns.
func IsReserved(name string) bool {
	return IsIdentity(name) || name == VariableColumn || name == ValueColumn
}

// CheckIdentity fails with a MissingColumnsError naming every identity
// column t lacks.
func CheckIdentity(t *Table) error {
	return CheckColumns(t, "draw identity", IdentityColumns...)
}

// CheckUniqueIdentity fails with a DuplicateError naming the first
// (.chain, .iteration, .draw) triple found on more than one row of a
// draws table.
func CheckUniqueIdentity(t *Table) error {
	if err := CheckIdentity(t); err != nil {
		return err
	}
	seen := make(map[string]int, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		k := t.RowKey(r, IdentityColumns)
		if first, ok := seen[k]; ok {
			return &errors.DuplicateError{
				What:   "draw identity",
				Key:    IdentityString(t, r),
				Detail: fmt.Sprintf("rows %d and %d", first+1, r+1),
			}
		}
		seen[k] = r
	}
	return nil
}

// IdentityString renders the identity of row r, e.g.
// "(.chain=1, .iteration=2, .draw=2)".
func IdentityString(t *Table, r int) string {
	parts := make([]string, len(IdentityColumns))
	for i, name := range IdentityColumns {
		parts[i] = name + "=" + t.MustColumn(name).Key(r)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// CheckColumns fails with a MissingColumnsError naming every listed column
// t lacks.
func CheckColumns(t *Table, role string, names ...string) error {
	if missing := t.Missing(names...); len(missing) > 0 {
		return errors.NewMissingColumns(role, missing...)
	}
	return nil
}

// Identity builds identity columns for chains × iterations draws, chain-major:
// draw d of chain c at iteration i is numbered (c-1)*iterations + i.
func Identity(chains, iterations int) []*Column {
	n := chains * iterations
	chain := make([]int, 0, n)
	iter := make([]int, 0, n)
	draw := make([]int, 0, n)
	for c := 1; c <= chains; c++ {
		for i := 1; i <= iterations; i++ {
			chain = append(chain, c)
			iter = append(iter, i)
			draw = append(draw, (c-1)*iterations+i)
		}
	}
	return []*Column{
		IntColumn(ChainColumn, chain),
		IntColumn(IterationColumn, iter),
		IntColumn(DrawColumn, draw),
	}
}

// Variables returns the names of columns that are not identity columns.
func Variables(t *Table) []string {
	var out []string
	for _, n := range t.Names() {
		if !IsIdentity(n) {
			out = append(out, n)
		}
	}
	return out
}
