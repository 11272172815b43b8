package draws

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	tderrors "github.com/FocuswithJustin/tidydraws/core/errors"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	cols := Identity(2, 2)
	cols = append(cols,
		FloatColumn("b[1]", []float64{1, 2, 3, 4}),
		FloatColumn("b[2]", []float64{5, 6, 7, 8}),
	)
	tb, err := New(cols...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tb
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		cols     []*Column
		wantBase error
	}{
		{
			name: "duplicate names",
			cols: []*Column{
				IntColumn("a", []int{1}),
				IntColumn("a", []int{2}),
			},
			wantBase: tderrors.ErrDuplicate,
		},
		{
			name: "ragged lengths",
			cols: []*Column{
				IntColumn("a", []int{1, 2}),
				FloatColumn("b", []float64{1}),
			},
			wantBase: tderrors.ErrInvalidInput,
		},
		{
			name:     "nil column",
			cols:     []*Column{nil},
			wantBase: tderrors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols...)
			if !errors.Is(err, tt.wantBase) {
				t.Errorf("New() error = %v, want %v", err, tt.wantBase)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	tb := MustNew(Identity(2, 3)...)
	if tb.NumRows() != 6 {
		t.Fatalf("NumRows() = %d, want 6", tb.NumRows())
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5, 6}, tb.MustColumn(DrawColumn).Ints()); diff != "" {
		t.Errorf(".draw mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1, 1, 2, 2, 2}, tb.MustColumn(ChainColumn).Ints()); diff != "" {
		t.Errorf(".chain mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 1, 2, 3}, tb.MustColumn(IterationColumn).Ints()); diff != "" {
		t.Errorf(".iteration mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckIdentity(t *testing.T) {
	tb := MustNew(IntColumn(DrawColumn, []int{1}), FloatColumn("mu", []float64{0}))
	err := CheckIdentity(tb)
	var mce *tderrors.MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("CheckIdentity() error = %v, want MissingColumnsError", err)
	}
	if diff := cmp.Diff([]string{ChainColumn, IterationColumn}, mce.Columns); diff != "" {
		t.Errorf("missing columns (-want +got):\n%s", diff)
	}
	if err := CheckIdentity(sampleTable(t)); err != nil {
		t.Errorf("CheckIdentity() on full table = %v", err)
	}
}

func TestCheckUniqueIdentity(t *testing.T) {
	if err := CheckUniqueIdentity(sampleTable(t)); err != nil {
		t.Errorf("CheckUniqueIdentity() on distinct draws = %v", err)
	}

	tb := MustNew(
		IntColumn(ChainColumn, []int{1, 1, 2}),
		IntColumn(IterationColumn, []int{1, 2, 2}),
		IntColumn(DrawColumn, []int{1, 2, 2}),
	)
	if err := CheckUniqueIdentity(tb); err != nil {
		t.Errorf("same .draw in different chains should be distinct: %v", err)
	}

	dup := MustNew(
		IntColumn(ChainColumn, []int{1, 1, 1}),
		IntColumn(IterationColumn, []int{1, 2, 1}),
		IntColumn(DrawColumn, []int{1, 2, 1}),
	)
	err := CheckUniqueIdentity(dup)
	var de *tderrors.DuplicateError
	if !errors.As(err, &de) {
		t.Fatalf("CheckUniqueIdentity() error = %v, want DuplicateError", err)
	}
	if de.Key != "(.chain=1, .iteration=1, .draw=1)" || de.Detail != "rows 1 and 3" {
		t.Errorf("DuplicateError = %+v", de)
	}
	if err := CheckUniqueIdentity(MustNew(IntColumn(DrawColumn, []int{1}))); !errors.Is(err, tderrors.ErrMissingColumn) {
		t.Errorf("missing identity error = %v, want ErrMissingColumn", err)
	}
}

func TestSelectDropReorder(t *testing.T) {
	tb := sampleTable(t)

	sel, err := tb.Select("b[2]", DrawColumn)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b[2]", DrawColumn}, sel.Names()); diff != "" {
		t.Errorf("Select names (-want +got):\n%s", diff)
	}

	if _, err := tb.Select("nope"); !errors.Is(err, tderrors.ErrMissingColumn) {
		t.Errorf("Select(nope) error = %v, want ErrMissingColumn", err)
	}

	dropped := tb.Drop("b[1]", "unknown")
	if dropped.Has("b[1]") || dropped.NumCols() != 4 {
		t.Errorf("Drop() names = %v", dropped.Names())
	}

	re := tb.Reorder("b[2]", "missing", ChainColumn)
	want := []string{"b[2]", ChainColumn, IterationColumn, DrawColumn, "b[1]"}
	if diff := cmp.Diff(want, re.Names()); diff != "" {
		t.Errorf("Reorder names (-want +got):\n%s", diff)
	}
}

func TestTakeDoesNotMutate(t *testing.T) {
	tb := sampleTable(t)
	sub := tb.Take([]int{3, 3, 0})
	if sub.NumRows() != 3 {
		t.Fatalf("NumRows() = %d, want 3", sub.NumRows())
	}
	if diff := cmp.Diff([]float64{4, 4, 1}, sub.MustColumn("b[1]").Floats()); diff != "" {
		t.Errorf("Take values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4}, tb.MustColumn("b[1]").Floats()); diff != "" {
		t.Errorf("receiver mutated (-want +got):\n%s", diff)
	}
}

func TestRenameAndWith(t *testing.T) {
	tb := sampleTable(t)
	renamed, err := tb.Rename("b[1]", "first")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if !renamed.Has("first") || renamed.Has("b[1]") || !tb.Has("b[1]") {
		t.Errorf("Rename() names = %v, receiver = %v", renamed.Names(), tb.Names())
	}
	if _, err := tb.Rename("b[1]", "b[2]"); !errors.Is(err, tderrors.ErrDuplicate) {
		t.Errorf("Rename onto existing error = %v, want ErrDuplicate", err)
	}

	replaced, err := tb.With(FloatColumn("b[1]", []float64{0, 0, 0, 0}))
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
	if replaced.NumCols() != tb.NumCols() {
		t.Errorf("With() replaced column count = %d, want %d", replaced.NumCols(), tb.NumCols())
	}
	if _, err := tb.With(FloatColumn("c", []float64{1})); !errors.Is(err, tderrors.ErrInvalidInput) {
		t.Errorf("With() short column error = %v, want ErrInvalidInput", err)
	}
}

func TestSortBy(t *testing.T) {
	tb := MustNew(
		StringColumn("g", []string{"b", "a", "b", "a"}),
		IntColumn("i", []int{10, 2, 1, 2}),
		FloatColumn("v", []float64{math.NaN(), 1, 0.5, 3}),
	)
	sorted, err := tb.SortBy("g", "i")
	if err != nil {
		t.Fatalf("SortBy() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "a", "b", "b"}, sorted.MustColumn("g").Strings()); diff != "" {
		t.Errorf("g (-want +got):\n%s", diff)
	}
	// Stable: the two ("a", 2) rows keep their relative order.
	if diff := cmp.Diff([]float64{1, 3, 0.5}, sorted.MustColumn("v").Floats()[:3]); diff != "" {
		t.Errorf("v (-want +got):\n%s", diff)
	}

	byValue, _ := tb.SortBy("v")
	if !math.IsNaN(byValue.MustColumn("v").Floats()[3]) {
		t.Errorf("NaN should sort last, got %v", byValue.MustColumn("v").Floats())
	}
}

func TestBind(t *testing.T) {
	a := MustNew(IntColumn("i", []int{1}), FloatColumn("v", []float64{1.5}))
	b := MustNew(FloatColumn("v", []float64{2.5}), StringColumn("i", []string{"x"}))

	out, err := Bind(a, b)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if got := out.MustColumn("i").Kind(); got != String {
		t.Errorf("promoted kind = %v, want string", got)
	}
	if diff := cmp.Diff([]string{"1", "x"}, out.MustColumn("i").Strings()); diff != "" {
		t.Errorf("i (-want +got):\n%s", diff)
	}

	c := MustNew(IntColumn("i", []int{1}))
	if _, err := Bind(a, c); err == nil {
		t.Error("Bind() with different column sets should fail")
	}
}

func TestBindFill(t *testing.T) {
	a := MustNew(IntColumn("i", []int{1, 2}), FloatColumn(ValueColumn, []float64{1, 2}))
	b := MustNew(StringColumn("k", []string{"x"}), FloatColumn(ValueColumn, []float64{3}))

	out, err := BindFill(a, b)
	if err != nil {
		t.Fatalf("BindFill() error = %v", err)
	}
	if diff := cmp.Diff([]string{"i", ValueColumn, "k"}, out.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "2", ""}, out.MustColumn("i").Strings()); diff != "" {
		t.Errorf("filled i (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"", "", "x"}, out.MustColumn("k").Strings()); diff != "" {
		t.Errorf("filled k (-want +got):\n%s", diff)
	}
}

func TestColumnKeysAndLevels(t *testing.T) {
	if got := IntColumn("a", []int{2}).Key(0); got != "2" {
		t.Errorf("Int key = %q", got)
	}
	if got := FloatColumn("a", []float64{2}).Key(0); got != "2" {
		t.Errorf("Float key = %q", got)
	}
	if got := FloatColumn("a", []float64{math.NaN()}).Key(0); got != "NA" {
		t.Errorf("NaN key = %q", got)
	}
	if CompareLevels("10", "9") <= 0 {
		t.Error("numeric levels should compare numerically")
	}
	if CompareLevels("b", "a") <= 0 {
		t.Error("string levels should compare lexically")
	}
	if CompareLevels("01", "1") >= 0 || CompareLevels("1", "01") <= 0 {
		t.Error("numerically equal spellings should fall back to lexical order")
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder("x", Float, 3)
	b.AppendInt(1)
	b.AppendString("2.5")
	b.AppendMissing()
	col := b.Column()
	if col.Len() != 3 || col.Float(1) != 2.5 || !col.IsMissing(2) {
		t.Errorf("builder column = %v", col.Floats())
	}
}
