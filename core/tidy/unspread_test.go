package tidy

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	tderrors "github.com/FocuswithJustin/tidydraws/core/errors"
)

func TestUnspreadDraws_RoundTrip(t *testing.T) {
	zeroPadded := func(t *testing.T) *draws.Table {
		return draws.MustNew(append(draws.Identity(1, 2),
			draws.FloatColumn("b[1]", []float64{1, 2}),
			draws.FloatColumn("b[01]", []float64{3, 4}),
		)...)
	}

	tests := []struct {
		name  string
		src   func(*testing.T) *draws.Table
		specs []string
		cols  []string
	}{
		{"single", fixture, []string{"b[i]"}, []string{"b[1]", "b[2]"}},
		{"scalar", fixture, []string{"sigma"}, []string{"sigma"}},
		{"joined", fixture, []string{"b[i]", "sigma"}, []string{"b[1]", "b[2]", "sigma"}},
		{"cross product", fixture, []string{"b[i]", "a[j]"}, []string{"b[1]", "b[2]", "a[1]", "a[2]", "a[3]"}},
		{"two dims", fixture, []string{"z[i,j]", "c(b, d)[i]"}, []string{"z[1,1]", "z[1,2]", "z[2,1]", "z[2,2]", "b[1]", "b[2]", "d[1]", "d[2]"}},
		{"zero-padded levels stay distinct", zeroPadded, []string{"b[i]"}, []string{"b[01]", "b[1]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.src(t)
			tidy, err := SpreadDraws(src, tt.specs, DefaultOptions())
			if err != nil {
				t.Fatalf("SpreadDraws() error = %v", err)
			}
			back, err := UnspreadDraws(tidy, tt.specs, DefaultOptions())
			if err != nil {
				t.Fatalf("UnspreadDraws() error = %v", err)
			}
			want, err := src.Select(append(append([]string{}, draws.IdentityColumns...), tt.cols...)...)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if !draws.Equivalent(want, back) {
				t.Errorf("round trip mismatch:\nwant %v\ngot  %v", want.Names(), back.Names())
			}
			if diff := cmp.Diff(append(append([]string{}, draws.IdentityColumns...), tt.cols...), back.Names()); diff != "" {
				t.Errorf("Names() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUngatherDraws_RoundTrip(t *testing.T) {
	specs := []string{"c(b, d)[i]", "sigma", "z[i,j]"}
	src := fixture(t)
	long, err := GatherDraws(src, specs, DefaultOptions())
	if err != nil {
		t.Fatalf("GatherDraws() error = %v", err)
	}
	back, err := UngatherDraws(long, specs, DefaultOptions())
	if err != nil {
		t.Fatalf("UngatherDraws() error = %v", err)
	}
	want, err := src.Select(".chain", ".iteration", ".draw",
		"b[1]", "b[2]", "d[1]", "d[2]", "sigma", "z[1,1]", "z[1,2]", "z[2,1]", "z[2,2]")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !draws.Equivalent(want, back) {
		t.Errorf("round trip mismatch:\nwant %v\ngot  %v", want.Names(), back.Names())
	}
}

func TestUnspreadDraws_DropIndices(t *testing.T) {
	tidy, err := SpreadDraws(fixture(t), []string{"b[i]"}, DefaultOptions())
	if err != nil {
		t.Fatalf("SpreadDraws() error = %v", err)
	}
	opts := DefaultOptions()
	opts.DropIndices = true
	back, err := UnspreadDraws(tidy, []string{"b[i]"}, opts)
	if err != nil {
		t.Fatalf("UnspreadDraws() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b[1]", "b[2]"}, back.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{5, 6, 7, 8}, floats(t, back, "b[2]")); diff != "" {
		t.Errorf("b[2] mismatch (-want +got):\n%s", diff)
	}
}

func TestUnspreadDraws_SkipsMissing(t *testing.T) {
	tidy := draws.MustNew(
		draws.IntColumn(".chain", []int{1, 1, 1}),
		draws.IntColumn(".iteration", []int{1, 1, 2}),
		draws.IntColumn(".draw", []int{1, 1, 2}),
		draws.IntColumn("i", []int{1, 2, 1}),
		draws.FloatColumn("b", []float64{1, math.NaN(), 3}),
	)
	back, err := UnspreadDraws(tidy, []string{"b[i]"}, DefaultOptions())
	if err != nil {
		t.Fatalf("UnspreadDraws() error = %v", err)
	}
	if diff := cmp.Diff([]string{".chain", ".iteration", ".draw", "b[1]"}, back.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if back.NumRows() != 2 {
		t.Errorf("NumRows() = %d, want 2", back.NumRows())
	}
}

func TestUnspreadDraws_Errors(t *testing.T) {
	conflicting := draws.MustNew(
		draws.IntColumn(".chain", []int{1, 1}),
		draws.IntColumn(".iteration", []int{1, 1}),
		draws.IntColumn(".draw", []int{1, 1}),
		draws.IntColumn("i", []int{1, 1}),
		draws.FloatColumn("b", []float64{1, 2}),
	)
	tidy, err := SpreadDraws(fixture(t), []string{"b[i]"}, DefaultOptions())
	if err != nil {
		t.Fatalf("SpreadDraws() error = %v", err)
	}

	tests := []struct {
		name     string
		table    *draws.Table
		specs    []string
		wantBase error
	}{
		{"conflicting values", conflicting, []string{"b[i]"}, tderrors.ErrDuplicate},
		{"missing value column", tidy, []string{"q[i]"}, tderrors.ErrMissingColumn},
		{"missing dimension column", tidy, []string{"b[k]"}, tderrors.ErrMissingColumn},
		{"missing identity", tidy.Drop(".chain"), []string{"b[i]"}, tderrors.ErrMissingColumn},
		{"wide syntax", tidy, []string{"b[i] | i"}, tderrors.ErrUnsupported},
		{"dots", tidy, []string{"b[..]"}, tderrors.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnspreadDraws(tt.table, tt.specs, DefaultOptions())
			if !errors.Is(err, tt.wantBase) {
				t.Errorf("error = %v, want %v", err, tt.wantBase)
			}
		})
	}
}

func TestUngatherDraws_Errors(t *testing.T) {
	long, err := GatherDraws(fixture(t), []string{"b[i]"}, DefaultOptions())
	if err != nil {
		t.Fatalf("GatherDraws() error = %v", err)
	}
	if _, err := UngatherDraws(long, []string{"d[i]"}, DefaultOptions()); !errors.Is(err, tderrors.ErrNotFound) {
		t.Errorf("unknown variable: error = %v, want ErrNotFound", err)
	}
	if _, err := UngatherDraws(long.Drop(".value"), []string{"b[i]"}, DefaultOptions()); !errors.Is(err, tderrors.ErrMissingColumn) {
		t.Errorf("missing .value: error = %v, want ErrMissingColumn", err)
	}
	opts := DefaultOptions()
	opts.Regex = true
	if _, err := UngatherDraws(long, []string{"b[i]"}, opts); !errors.Is(err, tderrors.ErrUnsupported) {
		t.Errorf("regex: error = %v, want ErrUnsupported", err)
	}
}
