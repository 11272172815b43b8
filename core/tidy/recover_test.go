package tidy

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	tderrors "github.com/FocuswithJustin/tidydraws/core/errors"
)

func TestRecoverLevels(t *testing.T) {
	tidy, err := SpreadDraws(fixture(t), []string{"b[i]"}, DefaultOptions())
	if err != nil {
		t.Fatalf("SpreadDraws() error = %v", err)
	}
	out, err := RecoverLevels(tidy, map[string][]string{"i": {"control", "treated"}})
	if err != nil {
		t.Fatalf("RecoverLevels() error = %v", err)
	}
	if got := out.MustColumn("i").Kind(); got != draws.String {
		t.Errorf("i kind = %v, want string", got)
	}
	want := []string{"control", "control", "control", "control", "treated", "treated", "treated", "treated"}
	if diff := cmp.Diff(want, keys(t, out, "i")); diff != "" {
		t.Errorf("i mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tidy.Names(), out.Names()); diff != "" {
		t.Errorf("column order changed (-want +got):\n%s", diff)
	}
}

func TestRecoverLevels_Errors(t *testing.T) {
	tidy, err := SpreadDraws(fixture(t), []string{"b[i]"}, DefaultOptions())
	if err != nil {
		t.Fatalf("SpreadDraws() error = %v", err)
	}

	tests := []struct {
		name     string
		levels   map[string][]string
		wantBase error
	}{
		{"out of range", map[string][]string{"i": {"only"}}, tderrors.ErrInvalidInput},
		{"missing column", map[string][]string{"k": {"x"}}, tderrors.ErrMissingColumn},
		{"not an index", map[string][]string{"b": {"x"}}, tderrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RecoverLevels(tidy, tt.levels); !errors.Is(err, tt.wantBase) {
				t.Errorf("error = %v, want %v", err, tt.wantBase)
			}
		})
	}
}

func TestSampleDraws(t *testing.T) {
	tidy, err := SpreadDraws(fixture(t), []string{"b[i]"}, DefaultOptions())
	if err != nil {
		t.Fatalf("SpreadDraws() error = %v", err)
	}

	out, err := SampleDraws(tidy, 2, 42)
	if err != nil {
		t.Fatalf("SampleDraws() error = %v", err)
	}
	distinct := make(map[string]bool)
	for _, d := range keys(t, out, ".draw") {
		distinct[d] = true
	}
	if len(distinct) != 2 {
		t.Errorf("distinct draws = %d, want 2", len(distinct))
	}
	// every row of a chosen draw is kept
	if out.NumRows() != 4 {
		t.Errorf("NumRows() = %d, want 4", out.NumRows())
	}

	again, err := SampleDraws(tidy, 2, 42)
	if err != nil {
		t.Fatalf("SampleDraws() error = %v", err)
	}
	if again.Fingerprint() != out.Fingerprint() {
		t.Error("same seed selected different draws")
	}

	all, err := SampleDraws(tidy, 4, 7)
	if err != nil {
		t.Fatalf("SampleDraws() error = %v", err)
	}
	if all.Fingerprint() != tidy.Fingerprint() {
		t.Error("sampling every draw should keep the table unchanged")
	}
}

func TestSampleDraws_Errors(t *testing.T) {
	tb := fixture(t)
	for _, n := range []int{0, -1, 5} {
		if _, err := SampleDraws(tb, n, 1); !errors.Is(err, tderrors.ErrInvalidInput) {
			t.Errorf("n=%d: error = %v, want ErrInvalidInput", n, err)
		}
	}
	if _, err := SampleDraws(tb.Drop(".draw"), 1, 1); !errors.Is(err, tderrors.ErrMissingColumn) {
		t.Errorf("missing .draw: error = %v, want ErrMissingColumn", err)
	}
}
