package compare

import (
	"fmt"
	"sort"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/internal/logging"
)

// Options controls CompareLevels.
type Options struct {
	// Fun combines the values of the two levels. Nil means subtraction.
	Fun func(a, b float64) float64

	// FunLabel is the operator written into labels. Empty means "-".
	FunLabel string

	// Levels fixes the level order. Empty means the sorted distinct values of
	// the by column.
	Levels []string

	// Ordered marks the levels as ordered, which makes KindDefault compare
	// adjacent levels.
	Ordered bool

	// GroupBy names the columns, besides draw identity, that rows are matched
	// on. Empty means every non-float column other than by.
	GroupBy []string
}

// DefaultOptions returns subtraction over sorted levels.
func DefaultOptions() Options {
	return Options{FunLabel: "-"}
}

func subtract(a, b float64) float64 { return a - b }

// CompareLevels compares value between the levels of by within each draw and
// group. The output holds the identity and group columns, by (now a label
// such as "b - a"), and value, one row per comparison, draw and group.
// Comparisons whose levels are absent from a group are skipped.
func CompareLevels(t *draws.Table, value, by string, c Comparison, opts Options) (*draws.Table, error) {
	if err := draws.CheckColumns(t, "comparison", draws.DrawColumn, value, by); err != nil {
		return nil, err
	}
	if by == value {
		return nil, errors.NewValidation("by", "by and value must be different columns")
	}
	if k := t.MustColumn(value).Kind(); k == draws.String {
		return nil, errors.NewValidation(value, "value column holds text, not numbers")
	}
	fun := opts.Fun
	if fun == nil {
		fun = subtract
	}
	op := opts.FunLabel
	if op == "" {
		op = "-"
	}

	groups, err := groupColumns(t, value, by, opts.GroupBy)
	if err != nil {
		return nil, err
	}
	byCol := t.MustColumn(by)

	levels := opts.Levels
	if len(levels) == 0 {
		levels = distinctLevels(byCol)
	}
	pairs, err := Pairs(levels, c.Resolve(opts.Ordered))
	if err != nil {
		return nil, err
	}

	// rows[group][level] = row
	groupIndex := make(map[string]int)
	var firstRows []int
	var rows []map[string]int
	for r := 0; r < t.NumRows(); r++ {
		key := t.RowKey(r, groups)
		g, ok := groupIndex[key]
		if !ok {
			g = len(firstRows)
			groupIndex[key] = g
			firstRows = append(firstRows, r)
			rows = append(rows, make(map[string]int))
		}
		level := byCol.Key(r)
		if prev, dup := rows[g][level]; dup {
			return nil, &errors.DuplicateError{
				What:   "row for level",
				Key:    level,
				Detail: fmt.Sprintf("rows %d and %d share %v", prev+1, r+1, groups),
			}
		}
		rows[g][level] = r
	}

	vals := t.MustColumn(value)
	var take []int
	var labels []string
	var diffs []float64
	for _, p := range pairs {
		label := p.Label(op)
		for g := range firstRows {
			ra, okA := rows[g][p.A]
			rb, okB := rows[g][p.B]
			if !okA || !okB {
				continue
			}
			take = append(take, firstRows[g])
			labels = append(labels, label)
			diffs = append(diffs, fun(vals.Float(ra), vals.Float(rb)))
		}
	}

	cols := make([]*draws.Column, 0, len(groups)+2)
	for _, n := range groups {
		cols = append(cols, t.MustColumn(n).Take(take))
	}
	cols = append(cols, draws.StringColumn(by, labels), draws.FloatColumn(value, diffs))
	out, err := draws.New(cols...)
	if err != nil {
		return nil, err
	}
	logging.Debug("compare_levels", "by", by, "value", value, "comparison", c.Kind.String(), "pairs", len(pairs), "rows", out.NumRows())
	return out, nil
}

// groupColumns returns identity columns present in t followed by the
// grouping columns.
func groupColumns(t *draws.Table, value, by string, groupBy []string) ([]string, error) {
	var out []string
	for _, id := range draws.IdentityColumns {
		if t.Has(id) {
			out = append(out, id)
		}
	}
	if len(groupBy) > 0 {
		if err := draws.CheckColumns(t, "grouping", groupBy...); err != nil {
			return nil, err
		}
		for _, g := range groupBy {
			if g == by || g == value {
				return nil, errors.NewValidation("group_by", fmt.Sprintf("%q cannot group its own comparison", g))
			}
			if !draws.IsIdentity(g) {
				out = append(out, g)
			}
		}
		return out, nil
	}
	for _, c := range t.Columns() {
		n := c.Name()
		if draws.IsIdentity(n) || n == by || n == value || c.Kind() == draws.Float {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func distinctLevels(c *draws.Column) []string {
	seen := make(map[string]bool)
	var levels []string
	for r := 0; r < c.Len(); r++ {
		if k := c.Key(r); !seen[k] {
			seen[k] = true
			levels = append(levels, k)
		}
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return draws.CompareLevels(levels[i], levels[j]) < 0
	})
	return levels
}
