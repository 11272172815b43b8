package draws

import (
	"math"
	"strconv"
)

// Kind is the storage type of a column.
type Kind int

const (
	// Int columns hold draw identities and integer index levels.
	Int Kind = iota
	// Float columns hold variable values. NaN marks a missing value.
	Float
	// String columns hold named index levels and labels.
	String
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "int":
		return Int, true
	case "float":
		return Float, true
	case "string":
		return String, true
	}
	return 0, false
}

// Column is a named, typed vector of cells.
//
// Columns are immutable once built: every Table operation that changes data
// allocates new columns. The constructors take ownership of the slice they
// are given.
type Column struct {
	name    string
	kind    Kind
	ints    []int
	floats  []float64
	strings []string
}

// IntColumn creates an Int column.
func IntColumn(name string, values []int) *Column {
	if values == nil {
		values = []int{}
	}
	return &Column{name: name, kind: Int, ints: values}
}

// FloatColumn creates a Float column.
func FloatColumn(name string, values []float64) *Column {
	if values == nil {
		values = []float64{}
	}
	return &Column{name: name, kind: Float, floats: values}
}

// StringColumn creates a String column.
func StringColumn(name string, values []string) *Column {
	if values == nil {
		values = []string{}
	}
	return &Column{name: name, kind: String, strings: values}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the storage kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int {
	switch c.kind {
	case Int:
		return len(c.ints)
	case Float:
		return len(c.floats)
	default:
		return len(c.strings)
	}
}

// Ints returns the backing slice of an Int column, or nil. Callers must not modify it.
func (c *Column) Ints() []int { return c.ints }

// Floats returns the backing slice of a Float column, or nil. Callers must not modify it.
func (c *Column) Floats() []float64 { return c.floats }

// Strings returns the backing slice of a String column, or nil. Callers must not modify it.
func (c *Column) Strings() []string { return c.strings }

// Int returns cell i of an Int column. Float cells are truncated; String cells parse or yield 0.
func (c *Column) Int(i int) int {
	switch c.kind {
	case Int:
		return c.ints[i]
	case Float:
		return int(c.floats[i])
	default:
		n, _ := strconv.Atoi(c.strings[i])
		return n
	}
}

// Float returns cell i as a float64. Unparseable String cells yield NaN.
func (c *Column) Float(i int) float64 {
	switch c.kind {
	case Int:
		return float64(c.ints[i])
	case Float:
		return c.floats[i]
	default:
		f, err := strconv.ParseFloat(c.strings[i], 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
}

// Key returns the canonical string form of cell i. Keys are what joins,
// grouping and pivoting compare, so Int 2 and Float 2 share the key "2".
func (c *Column) Key(i int) string {
	switch c.kind {
	case Int:
		return strconv.Itoa(c.ints[i])
	case Float:
		return FormatFloat(c.floats[i])
	default:
		return c.strings[i]
	}
}

// FormatFloat renders f with the shortest exact representation; NaN is "NA".
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NA"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// IsMissing reports whether cell i holds no value.
func (c *Column) IsMissing(i int) bool {
	return c.kind == Float && math.IsNaN(c.floats[i])
}

// Renamed returns a copy of the column header with a new name, sharing cells.
func (c *Column) Renamed(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// Take returns a new column holding the cells at the given rows, in order.
func (c *Column) Take(rows []int) *Column {
	out := newEmpty(c.name, c.kind, len(rows))
	for _, r := range rows {
		out.appendFrom(c, r)
	}
	return out
}

// Less orders cell i before cell j: numerically for Int and Float (NaN last),
// lexically for String.
func (c *Column) Less(i, j int) bool {
	return c.compare(i, j) < 0
}

func (c *Column) compare(i, j int) int {
	switch c.kind {
	case Int:
		return cmpInt(c.ints[i], c.ints[j])
	case Float:
		return cmpFloat(c.floats[i], c.floats[j])
	default:
		return cmpString(c.strings[i], c.strings[j])
	}
}

// newEmpty allocates an empty column with room for n cells.
func newEmpty(name string, kind Kind, n int) *Column {
	c := &Column{name: name, kind: kind}
	switch kind {
	case Int:
		c.ints = make([]int, 0, n)
	case Float:
		c.floats = make([]float64, 0, n)
	default:
		c.strings = make([]string, 0, n)
	}
	return c
}

// appendFrom copies cell i of src onto the end of c, converting kinds.
func (c *Column) appendFrom(src *Column, i int) {
	switch c.kind {
	case Int:
		c.ints = append(c.ints, src.Int(i))
	case Float:
		c.floats = append(c.floats, src.Float(i))
	default:
		if src.IsMissing(i) {
			c.strings = append(c.strings, "")
			return
		}
		c.strings = append(c.strings, src.Key(i))
	}
}

// appendZero appends the missing value for the column's kind.
func (c *Column) appendZero() {
	switch c.kind {
	case Int:
		c.ints = append(c.ints, 0)
	case Float:
		c.floats = append(c.floats, math.NaN())
	default:
		c.strings = append(c.strings, "")
	}
}

// Builder accumulates cells for one column.
type Builder struct {
	col *Column
}

// NewBuilder starts a column of the given kind with capacity n.
func NewBuilder(name string, kind Kind, n int) *Builder {
	return &Builder{col: newEmpty(name, kind, n)}
}

// AppendFrom copies cell i of src, converting to the builder's kind.
func (b *Builder) AppendFrom(src *Column, i int) { b.col.appendFrom(src, i) }

// AppendInt appends an integer cell.
func (b *Builder) AppendInt(v int) {
	switch b.col.kind {
	case Int:
		b.col.ints = append(b.col.ints, v)
	case Float:
		b.col.floats = append(b.col.floats, float64(v))
	default:
		b.col.strings = append(b.col.strings, strconv.Itoa(v))
	}
}

// AppendFloat appends a float cell.
func (b *Builder) AppendFloat(v float64) {
	switch b.col.kind {
	case Int:
		b.col.ints = append(b.col.ints, int(v))
	case Float:
		b.col.floats = append(b.col.floats, v)
	default:
		b.col.strings = append(b.col.strings, FormatFloat(v))
	}
}

// AppendString appends a string cell. Int builders parse it; Float builders parse or store NaN.
func (b *Builder) AppendString(v string) {
	switch b.col.kind {
	case Int:
		n, _ := strconv.Atoi(v)
		b.col.ints = append(b.col.ints, n)
	case Float:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			f = math.NaN()
		}
		b.col.floats = append(b.col.floats, f)
	default:
		b.col.strings = append(b.col.strings, v)
	}
}

// AppendMissing appends the missing value for the builder's kind.
func (b *Builder) AppendMissing() { b.col.appendZero() }

// Len returns the number of cells appended so far.
func (b *Builder) Len() int { return b.col.Len() }

// Column returns the built column. The builder must not be used afterwards.
func (b *Builder) Column() *Column { return b.col }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareLevels orders two index level keys: numerically when both parse as
// numbers, lexically otherwise. Numerically equal spellings such as "01"
// and "1" fall back to lexical order.
func CompareLevels(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		if c := cmpFloat(fa, fb); c != 0 {
			return c
		}
	}
	return cmpString(a, b)
}
