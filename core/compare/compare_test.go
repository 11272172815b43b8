package compare

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	tderrors "github.com/FocuswithJustin/tidydraws/core/errors"
)

func levelNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i))
	}
	return out
}

func TestPairs_Counts(t *testing.T) {
	for n := 1; n <= 6; n++ {
		levels := levelNames(n)
		tests := []struct {
			cmp  Comparison
			want int
		}{
			{Pairwise(), n * (n - 1) / 2},
			{Control(""), n - 1},
			{Ordered(), n - 1},
			{Default(), n * (n - 1) / 2},
		}
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%d", tt.cmp.Kind, n), func(t *testing.T) {
				pairs, err := Pairs(levels, tt.cmp)
				if err != nil {
					t.Fatalf("Pairs() error = %v", err)
				}
				if len(pairs) != tt.want {
					t.Errorf("len(Pairs()) = %d, want %d", len(pairs), tt.want)
				}
			})
		}
	}
}

func TestPairs_Order(t *testing.T) {
	levels := []string{"a", "b", "c"}
	tests := []struct {
		name string
		cmp  Comparison
		want []Pair
	}{
		{"pairwise", Pairwise(), []Pair{{"b", "a"}, {"c", "a"}, {"c", "b"}}},
		{"control first", Control(""), []Pair{{"b", "a"}, {"c", "a"}}},
		{"control named", Control("b"), []Pair{{"a", "b"}, {"c", "b"}}},
		{"ordered", Ordered(), []Pair{{"b", "a"}, {"c", "b"}}},
		{"explicit", Explicit(Pair{"a", "c"}), []Pair{{"a", "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pairs(levels, tt.cmp)
			if err != nil {
				t.Fatalf("Pairs() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPairs_Errors(t *testing.T) {
	levels := []string{"a", "b"}
	if _, err := Pairs(levels, Control("z")); !errors.Is(err, tderrors.ErrInvalidInput) {
		t.Errorf("unknown control: error = %v", err)
	}
	if _, err := Pairs(levels, Explicit(Pair{"a", "z"})); !errors.Is(err, tderrors.ErrInvalidInput) {
		t.Errorf("unknown explicit level: error = %v", err)
	}
	if _, err := Pairs([]string{"a", "a"}, Pairwise()); !errors.Is(err, tderrors.ErrDuplicate) {
		t.Errorf("duplicate levels: error = %v", err)
	}
}

func TestResolve(t *testing.T) {
	if got := Default().Resolve(true).Kind; got != KindOrdered {
		t.Errorf("Resolve(true) = %v, want ordered", got)
	}
	if got := Default().Resolve(false).Kind; got != KindPairwise {
		t.Errorf("Resolve(false) = %v, want pairwise", got)
	}
	if got := Control("a").Resolve(true).Kind; got != KindControl {
		t.Errorf("Resolve() changed an explicit kind to %v", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Comparison
		wantErr error
	}{
		{"", Default(), nil},
		{"pairwise", Pairwise(), nil},
		{"Ordered", Ordered(), nil},
		{"control", Control(""), nil},
		{"control=b", Control("b"), nil},
		{"explicit=b:a, c:a", Explicit(Pair{"b", "a"}, Pair{"c", "a"}), nil},
		{"explicit", Comparison{}, tderrors.ErrInvalidInput},
		{"explicit=b", Comparison{}, tderrors.ErrInvalidInput},
		{"sideways", Comparison{}, tderrors.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

// tidyTable has 2 draws x 3 conditions of mu.
func tidyTable() *draws.Table {
	return draws.MustNew(
		draws.IntColumn(".chain", []int{1, 1, 1, 1, 1, 1}),
		draws.IntColumn(".iteration", []int{1, 2, 1, 2, 1, 2}),
		draws.IntColumn(".draw", []int{1, 2, 1, 2, 1, 2}),
		draws.StringColumn("condition", []string{"a", "a", "b", "b", "c", "c"}),
		draws.FloatColumn("mu", []float64{1, 2, 10, 20, 100, 200}),
	)
}

func TestCompareLevels_Pairwise(t *testing.T) {
	out, err := CompareLevels(tidyTable(), "mu", "condition", Pairwise(), DefaultOptions())
	if err != nil {
		t.Fatalf("CompareLevels() error = %v", err)
	}
	if diff := cmp.Diff([]string{".chain", ".iteration", ".draw", "condition", "mu"}, out.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	wantLabels := []string{"b - a", "b - a", "c - a", "c - a", "c - b", "c - b"}
	if diff := cmp.Diff(wantLabels, out.MustColumn("condition").Strings()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{9, 18, 99, 198, 90, 180}, out.MustColumn("mu").Floats()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareLevels_ControlWithCustomFun(t *testing.T) {
	opts := DefaultOptions()
	opts.Fun = func(a, b float64) float64 { return a / b }
	opts.FunLabel = "/"
	out, err := CompareLevels(tidyTable(), "mu", "condition", Control("a"), opts)
	if err != nil {
		t.Fatalf("CompareLevels() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b / a", "b / a", "c / a", "c / a"}, out.MustColumn("condition").Strings()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{10, 10, 100, 100}, out.MustColumn("mu").Floats()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareLevels_OrderedDefault(t *testing.T) {
	opts := DefaultOptions()
	opts.Ordered = true
	opts.Levels = []string{"c", "b", "a"}
	out, err := CompareLevels(tidyTable(), "mu", "condition", Default(), opts)
	if err != nil {
		t.Fatalf("CompareLevels() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b - c", "b - c", "a - b", "a - b"}, out.MustColumn("condition").Strings()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareLevels_GroupsByOtherColumns(t *testing.T) {
	tb := draws.MustNew(
		draws.IntColumn(".chain", []int{1, 1, 1, 1}),
		draws.IntColumn(".iteration", []int{1, 1, 1, 1}),
		draws.IntColumn(".draw", []int{1, 1, 1, 1}),
		draws.IntColumn("site", []int{1, 1, 2, 2}),
		draws.StringColumn("condition", []string{"a", "b", "a", "b"}),
		draws.FloatColumn("mu", []float64{1, 3, 10, 30}),
		draws.FloatColumn("sigma", []float64{5, 5, 5, 5}),
	)
	out, err := CompareLevels(tb, "mu", "condition", Pairwise(), DefaultOptions())
	if err != nil {
		t.Fatalf("CompareLevels() error = %v", err)
	}
	if diff := cmp.Diff([]string{".chain", ".iteration", ".draw", "site", "condition", "mu"}, out.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{2, 20}, out.MustColumn("mu").Floats()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareLevels_Errors(t *testing.T) {
	dup := draws.MustNew(
		draws.IntColumn(".draw", []int{1, 1}),
		draws.StringColumn("condition", []string{"a", "a"}),
		draws.FloatColumn("mu", []float64{1, 2}),
	)
	tests := []struct {
		name     string
		table    *draws.Table
		value    string
		by       string
		cmp      Comparison
		wantBase error
	}{
		{"missing by", tidyTable(), "mu", "group", Pairwise(), tderrors.ErrMissingColumn},
		{"missing value", tidyTable(), "nu", "condition", Pairwise(), tderrors.ErrMissingColumn},
		{"missing draw", tidyTable().Drop(".draw"), "mu", "condition", Pairwise(), tderrors.ErrMissingColumn},
		{"duplicate rows", dup, "mu", "condition", Pairwise(), tderrors.ErrDuplicate},
		{"unknown control", tidyTable(), "mu", "condition", Control("z"), tderrors.ErrInvalidInput},
		{"text value", tidyTable(), "condition", "mu", Pairwise(), tderrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompareLevels(tt.table, tt.value, tt.by, tt.cmp, DefaultOptions())
			if !errors.Is(err, tt.wantBase) {
				t.Errorf("error = %v, want %v", err, tt.wantBase)
			}
		})
	}
}
