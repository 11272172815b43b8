package draws

import "testing"

func TestFingerprint(t *testing.T) {
	a := sampleTable(t)
	b := sampleTable(t)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical tables should share a fingerprint")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a.Fingerprint()))
	}

	reordered := a.Reorder("b[2]")
	if a.Fingerprint() == reordered.Fingerprint() {
		t.Error("column order should change the fingerprint")
	}
}

func TestEquivalent(t *testing.T) {
	a := sampleTable(t)

	shuffled := a.Take([]int{3, 1, 0, 2}).Reorder("b[2]", DrawColumn)
	if !Equivalent(a, shuffled) {
		t.Error("row and column order should not matter")
	}

	changed, _ := a.With(FloatColumn("b[1]", []float64{1, 2, 3, 5}))
	if Equivalent(a, changed) {
		t.Error("different cells should not be equivalent")
	}

	dup := a.Take([]int{0, 0, 1, 2})
	if Equivalent(a, dup) {
		t.Error("row multiplicity should matter")
	}

	if Equivalent(a, a.Drop("b[1]")) {
		t.Error("different column sets should not be equivalent")
	}
}
