package tidy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// missing marks an absent value cell.
var missing = math.NaN()

// frame is a long table plus which of its columns are dimensions and which
// hold values. Identity columns are implied.
type frame struct {
	t      *draws.Table
	dims   []string
	values []string
}

// pivotWider turns the levels of namesFrom into columns. Rows are grouped by
// idCols in first-seen order; each value column yields one output column per
// level, named by nameFn. Cells with no source row are NaN.
func pivotWider(tb *draws.Table, idCols, namesFrom, values []string, nameFn func(value string, levels []string) string) (*draws.Table, error) {
	groupOf := make([]int, tb.NumRows())
	groupIndex := make(map[string]int)
	var firstRows []int
	for r := 0; r < tb.NumRows(); r++ {
		key := tb.RowKey(r, idCols)
		g, ok := groupIndex[key]
		if !ok {
			g = len(firstRows)
			groupIndex[key] = g
			firstRows = append(firstRows, r)
		}
		groupOf[r] = g
	}

	nameCols := make([]*draws.Column, len(namesFrom))
	for i, n := range namesFrom {
		nameCols[i] = tb.MustColumn(n)
	}
	levelOf := make([]int, tb.NumRows())
	levelIndex := make(map[string]int)
	var levels [][]string
	for r := 0; r < tb.NumRows(); r++ {
		tup := make([]string, len(nameCols))
		for i, c := range nameCols {
			tup[i] = c.Key(r)
		}
		key := strings.Join(tup, "\x1f")
		l, ok := levelIndex[key]
		if !ok {
			l = len(levels)
			levelIndex[key] = l
			levels = append(levels, tup)
		}
		levelOf[r] = l
	}
	order := sortedTupleOrder(levels)

	seen := make(map[[2]int]int, tb.NumRows())
	for r := 0; r < tb.NumRows(); r++ {
		cell := [2]int{groupOf[r], levelOf[r]}
		if prev, dup := seen[cell]; dup {
			return nil, &errors.DuplicateError{
				What:   "row for pivoted level",
				Key:    strings.Join(levels[levelOf[r]], ","),
				Detail: fmt.Sprintf("rows %d and %d share %s", prev+1, r+1, strings.Join(idCols, ", ")),
			}
		}
		seen[cell] = r
	}

	out := make([]*draws.Column, 0, len(idCols)+len(values)*len(levels))
	taken := make(map[string]bool)
	for _, n := range idCols {
		out = append(out, tb.MustColumn(n).Take(firstRows))
		taken[n] = true
	}
	for _, v := range values {
		src := tb.MustColumn(v)
		for _, l := range order {
			name := nameFn(v, levels[l])
			if taken[name] {
				return nil, &errors.DuplicateError{
					What:   "column name",
					Key:    name,
					Detail: "pivoted column collides with an existing column",
				}
			}
			taken[name] = true
			cells := make([]float64, len(firstRows))
			for g := range cells {
				cells[g] = missing
			}
			for r := 0; r < tb.NumRows(); r++ {
				if levelOf[r] == l {
					cells[groupOf[r]] = src.Float(r)
				}
			}
			out = append(out, draws.FloatColumn(name, cells))
		}
	}
	return draws.New(out...)
}

// sortedTupleOrder returns tuple indices sorted position by position with
// draws.CompareLevels.
func sortedTupleOrder(tuples [][]string) []int {
	order := make([]int, len(tuples))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return compareTuples(tuples[order[a]], tuples[order[b]]) < 0
	})
	return order
}

func compareTuples(a, b []string) int {
	for p := range a {
		if c := draws.CompareLevels(a[p], b[p]); c != 0 {
			return c
		}
	}
	return 0
}

// dotsColumnName names a column produced from ".." dimensions, e.g. "r.1.2".
func dotsColumnName(value string, levels []string) string {
	return value + "." + strings.Join(levels, ".")
}
