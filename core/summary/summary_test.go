package summary

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	tderrors "github.com/FocuswithJustin/tidydraws/core/errors"
)

func seq(from, to float64) []float64 {
	var out []float64
	for v := from; v <= to; v++ {
		out = append(out, v)
	}
	return out
}

func TestQuantile(t *testing.T) {
	x := seq(1, 10)
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{1, 10},
		{0.5, 5.5},
		{0.25, 3.25},
		{0.75, 7.75},
	}
	for _, tt := range tests {
		if got := Quantile(x, tt.p); got != tt.want {
			t.Errorf("Quantile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := Quantile(nil, 0.5); !math.IsNaN(got) {
		t.Errorf("Quantile(nil) = %v, want NaN", got)
	}
	if got := Quantile([]float64{3}, 0.9); got != 3 {
		t.Errorf("Quantile(single) = %v, want 3", got)
	}
}

func TestPoints(t *testing.T) {
	x := seq(1, 10)
	if got := Mean.Fn(x); got != 5.5 {
		t.Errorf("Mean = %v, want 5.5", got)
	}
	if got := Median.Fn(x); got != 5.5 {
		t.Errorf("Median = %v, want 5.5", got)
	}

	symmetric := []float64{-2, -1, -1, 0, 0, 0, 1, 1, 2}
	if got := Mode.Fn(symmetric); math.Abs(got) > 0.05 {
		t.Errorf("Mode = %v, want about 0", got)
	}
	skewed := clean([]float64{1, 1.1, 1.2, 1.15, 1.05, 5, 9})
	if got := Mode.Fn(skewed); got < 0.9 || got > 1.5 {
		t.Errorf("Mode = %v, want near the cluster at 1.1", got)
	}
	if got := Mode.Fn([]float64{4, 4, 4}); got != 4 {
		t.Errorf("Mode(constant) = %v, want 4", got)
	}
}

func TestIntervals(t *testing.T) {
	lo, hi := QI.Fn(seq(1, 10), 0.5)
	if lo != 3.25 || hi != 7.75 {
		t.Errorf("QI = (%v, %v), want (3.25, 7.75)", lo, hi)
	}
	lo, hi = HDCI.Fn([]float64{0, 10, 11, 12, 13, 50}, 0.5)
	if lo != 10 || hi != 13 {
		t.Errorf("HDCI = (%v, %v), want (10, 13)", lo, hi)
	}
	lo, hi = HDCI.Fn(seq(1, 4), 1)
	if lo != 1 || hi != 4 {
		t.Errorf("HDCI(width 1) = (%v, %v), want (1, 4)", lo, hi)
	}
	lo, hi = HDCI.Fn([]float64{1, 2, 5}, 0.2)
	if lo != 1 || hi != 2 {
		t.Errorf("HDCI(narrow width) = (%v, %v), want (1, 2)", lo, hi)
	}
	lo, hi = HDCI.Fn([]float64{7}, 0.95)
	if lo != 7 || hi != 7 {
		t.Errorf("HDCI(single draw) = (%v, %v), want (7, 7)", lo, hi)
	}
}

func TestParse(t *testing.T) {
	p, err := ParsePoint("Mode")
	if err != nil || p.Name != "mode" {
		t.Errorf("ParsePoint(Mode) = %v, %v", p.Name, err)
	}
	iv, err := ParseInterval("hdci")
	if err != nil || iv.Name != "hdci" {
		t.Errorf("ParseInterval(hdci) = %v, %v", iv.Name, err)
	}
	if _, err := ParsePoint("max"); !errors.Is(err, tderrors.ErrUnsupported) {
		t.Errorf("ParsePoint(max) error = %v", err)
	}
	if _, err := ParseInterval("eti"); !errors.Is(err, tderrors.ErrUnsupported) {
		t.Errorf("ParseInterval(eti) error = %v", err)
	}
}

// grouped has 10 draws for each of two levels of i.
func grouped() *draws.Table {
	ids := draws.Identity(1, 10)
	var chain, iter, draw, idx []int
	var b, c []float64
	for i := 1; i <= 2; i++ {
		for r := 0; r < 10; r++ {
			chain = append(chain, ids[0].Int(r))
			iter = append(iter, ids[1].Int(r))
			draw = append(draw, ids[2].Int(r))
			idx = append(idx, i)
			b = append(b, float64(10*(i-1)+r+1))
			c = append(c, float64(-(r + 1)))
		}
	}
	return draws.MustNew(
		draws.IntColumn(".chain", chain),
		draws.IntColumn(".iteration", iter),
		draws.IntColumn(".draw", draw),
		draws.IntColumn("i", idx),
		draws.FloatColumn("b", b),
		draws.FloatColumn("c", c),
	)
}

func TestMedianQI(t *testing.T) {
	out, err := MedianQI(grouped(), []string{"b"}, 0.5)
	if err != nil {
		t.Fatalf("MedianQI() error = %v", err)
	}
	want := []string{"i", "b", ".lower", ".upper", ".width", ".point", ".interval"}
	if diff := cmp.Diff(want, out.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2}, out.MustColumn("i").Ints()); diff != "" {
		t.Errorf("i mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{5.5, 15.5}, out.MustColumn("b").Floats()); diff != "" {
		t.Errorf("b mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{3.25, 13.25}, out.MustColumn(".lower").Floats()); diff != "" {
		t.Errorf(".lower mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{7.75, 17.75}, out.MustColumn(".upper").Floats()); diff != "" {
		t.Errorf(".upper mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"median", "median"}, out.MustColumn(".point").Strings()); diff != "" {
		t.Errorf(".point mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"qi", "qi"}, out.MustColumn(".interval").Strings()); diff != "" {
		t.Errorf(".interval mismatch (-want +got):\n%s", diff)
	}
}

func TestPointInterval_SeveralWidthsAndValues(t *testing.T) {
	out, err := PointInterval(grouped(), nil, Options{Point: Mean, Interval: QI, Widths: []float64{0.5, 1}})
	if err != nil {
		t.Fatalf("PointInterval() error = %v", err)
	}
	want := []string{"i", "b", "b.lower", "b.upper", "c", "c.lower", "c.upper", ".width", ".point", ".interval"}
	if diff := cmp.Diff(want, out.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0.5, 0.5, 1, 1}, out.MustColumn(".width").Floats()); diff != "" {
		t.Errorf(".width mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{3.25, 13.25, 1, 11}, out.MustColumn("b.lower").Floats()); diff != "" {
		t.Errorf("b.lower mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{-5.5, -5.5, -5.5, -5.5}, out.MustColumn("c").Floats()); diff != "" {
		t.Errorf("c mismatch (-want +got):\n%s", diff)
	}
}

func TestPointInterval_AllMissingGroup(t *testing.T) {
	tb := draws.MustNew(
		draws.StringColumn("g", []string{"x", "x", "y"}),
		draws.FloatColumn("v", []float64{1, 3, math.NaN()}),
	)
	out, err := PointInterval(tb, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("PointInterval() error = %v", err)
	}
	v := out.MustColumn("v").Floats()
	if v[0] != 2 || !math.IsNaN(v[1]) {
		t.Errorf("v = %v, want [2 NaN]", v)
	}
}

func TestPointInterval_Errors(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		opts     Options
		wantBase error
	}{
		{"zero width", []string{"b"}, Options{Widths: []float64{0}}, tderrors.ErrInvalidInput},
		{"width above one", []string{"b"}, Options{Widths: []float64{1.5}}, tderrors.ErrInvalidInput},
		{"missing value", []string{"q"}, DefaultOptions(), tderrors.ErrMissingColumn},
		{"missing group", []string{"b"}, Options{GroupBy: []string{"k"}}, tderrors.ErrMissingColumn},
		{"value is group", []string{"b"}, Options{GroupBy: []string{"b"}}, tderrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PointInterval(grouped(), tt.values, tt.opts); !errors.Is(err, tt.wantBase) {
				t.Errorf("error = %v, want %v", err, tt.wantBase)
			}
		})
	}
}
