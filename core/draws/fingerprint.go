package draws

import (
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"
)

const (
	unitSep   = 0x1f
	recordSep = 0x1e
)

// Fingerprint returns the hex BLAKE3 digest of the table: column names and
// kinds in order, then every row. Two tables share a fingerprint only if
// they hold the same cells in the same layout.
func (t *Table) Fingerprint() string {
	h := blake3.New()
	for _, c := range t.cols {
		h.Write([]byte(c.name))
		h.Write([]byte{unitSep})
		h.Write([]byte(c.kind.String()))
		h.Write([]byte{recordSep})
	}
	for r := 0; r < t.nrows; r++ {
		for _, c := range t.cols {
			h.Write([]byte(c.Key(r)))
			h.Write([]byte{unitSep})
		}
		h.Write([]byte{recordSep})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Equivalent reports whether a and b have the same set of column names and
// the same multiset of rows. Column order, row order and storage kind are
// ignored: cells compare by their canonical keys.
func Equivalent(a, b *Table) bool {
	if a.NumCols() != b.NumCols() || a.NumRows() != b.NumRows() {
		return false
	}
	names := a.Names()
	sort.Strings(names)
	if len(b.Missing(names...)) > 0 {
		return false
	}
	counts := make(map[[32]byte]int, a.NumRows())
	for r := 0; r < a.NumRows(); r++ {
		counts[rowDigest(a, names, r)]++
	}
	for r := 0; r < b.NumRows(); r++ {
		d := rowDigest(b, names, r)
		if counts[d] == 0 {
			return false
		}
		counts[d]--
	}
	return true
}

func rowDigest(t *Table, names []string, row int) [32]byte {
	h := blake3.New()
	for _, n := range names {
		h.Write([]byte(n))
		h.Write([]byte{unitSep})
		h.Write([]byte(t.cols[t.index[n]].Key(row)))
		h.Write([]byte{recordSep})
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
