package tidy

import (
	"errors"
	"strings"
	"testing"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	tderrors "github.com/FocuswithJustin/tidydraws/core/errors"
)

func TestCheckDraws_PerChainDrawNumbers(t *testing.T) {
	// .draw restarts in each chain, so (1, 1, 1) and (2, 1, 1) are different draws.
	src := draws.MustNew(
		draws.IntColumn(".chain", []int{1, 2}),
		draws.IntColumn(".iteration", []int{1, 1}),
		draws.IntColumn(".draw", []int{1, 1}),
	)
	out := draws.MustNew(
		draws.IntColumn(".chain", []int{1}),
		draws.IntColumn(".iteration", []int{1}),
		draws.IntColumn(".draw", []int{1}),
	)

	err := checkDraws(src, out)
	if !errors.Is(err, tderrors.ErrInvalidInput) {
		t.Fatalf("checkDraws() error = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), ".chain=2") {
		t.Errorf("error %q should name the lost draw", err)
	}
	if err := checkDraws(src, src); err != nil {
		t.Errorf("checkDraws() with every draw kept = %v", err)
	}
}
