package summary

import (
	"fmt"
	"math"
	"slices"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/internal/logging"
)

// Column names added by PointInterval.
const (
	LowerColumn    = ".lower"
	UpperColumn    = ".upper"
	WidthColumn    = ".width"
	PointColumn    = ".point"
	IntervalColumn = ".interval"
)

// DefaultWidth is the interval mass used when none is given.
const DefaultWidth = 0.95

// Options controls PointInterval.
type Options struct {
	// GroupBy names the columns to summarize within. Empty means every
	// column that is neither draw identity nor float.
	GroupBy []string

	Point    Point
	Interval Interval

	// Widths are interval masses in (0, 1]. Empty means DefaultWidth.
	Widths []float64
}

// DefaultOptions summarizes with the median and a 95% quantile interval.
func DefaultOptions() Options {
	return Options{Point: Median, Interval: QI, Widths: []float64{DefaultWidth}}
}

// PointInterval summarizes the value columns of t within each group.
//
// The output has one row per width and group: the group columns, then for a
// single value column v the columns v, .lower and .upper, or for several
// v, v.lower and v.upper each; then .width, .point and .interval. Empty
// values means every float column that is not a group column.
func PointInterval(t *draws.Table, values []string, opts Options) (*draws.Table, error) {
	if opts.Point.Fn == nil {
		opts.Point = Median
	}
	if opts.Interval.Fn == nil {
		opts.Interval = QI
	}
	widths := opts.Widths
	if len(widths) == 0 {
		widths = []float64{DefaultWidth}
	}
	for _, w := range widths {
		if !(w > 0 && w <= 1) {
			return nil, &errors.ValidationError{
				Field:   "width",
				Value:   fmt.Sprint(w),
				Message: "interval width must be in (0, 1]",
			}
		}
	}

	groups := opts.GroupBy
	if len(groups) == 0 {
		for _, c := range t.Columns() {
			if !draws.IsIdentity(c.Name()) && c.Kind() != draws.Float && !slices.Contains(values, c.Name()) {
				groups = append(groups, c.Name())
			}
		}
	} else if err := draws.CheckColumns(t, "grouping", groups...); err != nil {
		return nil, err
	}

	if len(values) == 0 {
		for _, c := range t.Columns() {
			if c.Kind() == draws.Float && !slices.Contains(groups, c.Name()) {
				values = append(values, c.Name())
			}
		}
		if len(values) == 0 {
			return nil, errors.NewValidation("values", "table has no float columns to summarize")
		}
	} else if err := draws.CheckColumns(t, "value", values...); err != nil {
		return nil, err
	}
	for _, v := range values {
		if slices.Contains(groups, v) {
			return nil, errors.NewValidation(v, "column is both a value and a group")
		}
		if t.MustColumn(v).Kind() == draws.String {
			return nil, errors.NewValidation(v, "value column holds text, not numbers")
		}
	}

	groupIndex := make(map[string]int)
	var firstRows []int
	var members [][]int
	for r := 0; r < t.NumRows(); r++ {
		key := t.RowKey(r, groups)
		g, ok := groupIndex[key]
		if !ok {
			g = len(firstRows)
			groupIndex[key] = g
			firstRows = append(firstRows, r)
			members = append(members, nil)
		}
		members[g] = append(members[g], r)
	}

	// samples[v][g] is the sorted sample of value v in group g.
	samples := make([][][]float64, len(values))
	for i, v := range values {
		col := t.MustColumn(v)
		samples[i] = make([][]float64, len(members))
		for g, rows := range members {
			x := make([]float64, len(rows))
			for k, r := range rows {
				x[k] = col.Float(r)
			}
			samples[i][g] = clean(x)
		}
	}

	nOut := len(widths) * len(firstRows)
	take := make([]int, 0, nOut)
	points := make([][]float64, len(values))
	lowers := make([][]float64, len(values))
	uppers := make([][]float64, len(values))
	outWidths := make([]float64, 0, nOut)
	for _, w := range widths {
		for g := range firstRows {
			take = append(take, firstRows[g])
			outWidths = append(outWidths, w)
			for i := range values {
				p, lo, hi := summarize(samples[i][g], opts.Point, opts.Interval, w)
				points[i] = append(points[i], p)
				lowers[i] = append(lowers[i], lo)
				uppers[i] = append(uppers[i], hi)
			}
		}
	}

	cols := make([]*draws.Column, 0, len(groups)+3*len(values)+3)
	for _, n := range groups {
		cols = append(cols, t.MustColumn(n).Take(take))
	}
	for i, v := range values {
		lower, upper := LowerColumn, UpperColumn
		if len(values) > 1 {
			lower, upper = v+LowerColumn, v+UpperColumn
		}
		cols = append(cols,
			draws.FloatColumn(v, points[i]),
			draws.FloatColumn(lower, lowers[i]),
			draws.FloatColumn(upper, uppers[i]),
		)
	}
	cols = append(cols,
		draws.FloatColumn(WidthColumn, outWidths),
		draws.StringColumn(PointColumn, repeat(opts.Point.Name, nOut)),
		draws.StringColumn(IntervalColumn, repeat(opts.Interval.Name, nOut)),
	)
	out, err := draws.New(cols...)
	if err != nil {
		return nil, err
	}
	logging.Debug("point_interval", "values", values, "groups", groups, "point", opts.Point.Name, "interval", opts.Interval.Name, "rows", out.NumRows())
	return out, nil
}

func summarize(x []float64, p Point, iv Interval, width float64) (point, lower, upper float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	lower, upper = iv.Fn(x, width)
	return p.Fn(x), lower, upper
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func summarizeWith(p Point, iv Interval) func(*draws.Table, []string, ...float64) (*draws.Table, error) {
	return func(t *draws.Table, values []string, widths ...float64) (*draws.Table, error) {
		return PointInterval(t, values, Options{Point: p, Interval: iv, Widths: widths})
	}
}

var (
	// MeanQI summarizes with the mean and a quantile interval.
	MeanQI = summarizeWith(Mean, QI)
	// MedianQI summarizes with the median and a quantile interval.
	MedianQI = summarizeWith(Median, QI)
	// ModeHDCI summarizes with the mode and the shortest interval.
	ModeHDCI = summarizeWith(Mode, HDCI)
	// MedianHDCI summarizes with the median and the shortest interval.
	MedianHDCI = summarizeWith(Median, HDCI)
)
