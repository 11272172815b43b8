package tidy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/core/spec"
)

// indexedName splits "b[1,2]" into "b" and "1,2".
var indexedName = regexp.MustCompile(`^([^\[\]]+)\[(.*)\]$`)

// indexed is the set of draws columns one spec selects, keyed by variable
// and index tuple.
type indexed struct {
	spec      *spec.Spec
	variables []string // matched variable names, spec order (first-seen for regex)
	dimNames  []string // one internal column name per index position
	dimKinds  []draws.Kind
	tuples    [][]string                      // distinct index tuples, sorted
	cells     map[string]map[int]*draws.Column // variable -> tuple -> source column
}

// dotsName names the internal column for a ".." position.
func dotsName(pos int) string {
	return fmt.Sprintf("..%d", pos+1)
}

// splitIndex splits an index string on sep, dropping empty fields.
func splitIndex(idx string, sep *regexp.Regexp) []string {
	if strings.TrimSpace(idx) == "" {
		return nil
	}
	parts := sep.Split(idx, -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// indexColumns selects and splits the columns of t that sp refers to.
func indexColumns(t *draws.Table, sp *spec.Spec, sep *regexp.Regexp) (*indexed, error) {
	match, err := variableMatcher(sp)
	if err != nil {
		return nil, err
	}

	ix := &indexed{
		spec:     sp,
		dimNames: make([]string, len(sp.Dimensions)),
		cells:    make(map[string]map[int]*draws.Column),
	}
	for i, d := range sp.Dimensions {
		if d == spec.WideDots {
			ix.dimNames[i] = dotsName(i)
		} else {
			ix.dimNames[i] = d
		}
	}

	tupleIndex := make(map[string]int)
	seenVar := make(map[string]bool)

	for _, col := range t.Columns() {
		name := col.Name()
		if draws.IsIdentity(name) {
			continue
		}

		var base string
		var levels []string
		if len(sp.Dimensions) > 0 {
			m := indexedName.FindStringSubmatch(name)
			if m == nil {
				continue
			}
			base = m[1]
			levels = splitIndex(m[2], sep)
		} else {
			if strings.ContainsAny(name, "[]") {
				continue
			}
			base = name
		}
		if !match(base) {
			continue
		}

		if len(levels) != len(sp.Dimensions) {
			return nil, &errors.ValidationError{
				Field: name,
				Value: name,
				Message: fmt.Sprintf("column has %d index values but spec %s names %d dimensions",
					len(levels), sp.Source(), len(sp.Dimensions)),
			}
		}
		if col.Kind() == draws.String {
			return nil, errors.NewValidation(name, "variable column holds text, not numbers")
		}

		tupleKey := strings.Join(levels, "\x1f")
		k, ok := tupleIndex[tupleKey]
		if !ok {
			k = len(ix.tuples)
			tupleIndex[tupleKey] = k
			ix.tuples = append(ix.tuples, levels)
		}

		if !seenVar[base] {
			seenVar[base] = true
			ix.variables = append(ix.variables, base)
			ix.cells[base] = make(map[int]*draws.Column)
		}
		if prev, dup := ix.cells[base][k]; dup {
			return nil, &errors.DuplicateError{
				What:   "variable/dimension combination",
				Key:    cellName(base, levels),
				Detail: fmt.Sprintf("columns %q and %q both map to it", prev.Name(), name),
			}
		}
		ix.cells[base][k] = col
	}

	if err := ix.checkFound(t); err != nil {
		return nil, err
	}
	ix.orderVariables()
	ix.sortTuples()
	ix.inferKinds()
	return ix, nil
}

// variableMatcher returns a predicate over variable base names.
func variableMatcher(sp *spec.Spec) (func(string) bool, error) {
	if !sp.Regex {
		set := make(map[string]bool, len(sp.Variables))
		for _, v := range sp.Variables {
			set[v] = true
		}
		return func(name string) bool { return set[name] }, nil
	}
	res := make([]*regexp.Regexp, len(sp.Variables))
	for i, v := range sp.Variables {
		re, err := variablePattern(v)
		if err != nil {
			return nil, err
		}
		res[i] = re
	}
	return func(name string) bool {
		for _, re := range res {
			if re.MatchString(name) {
				return true
			}
		}
		return false
	}, nil
}

// checkFound fails when a named variable selected nothing.
func (ix *indexed) checkFound(t *draws.Table) error {
	sp := ix.spec
	if sp.Regex {
		if len(ix.variables) == 0 {
			return &errors.NotFoundError{Resource: "variable", ID: fmt.Sprintf("no columns match spec %s", sp.Source())}
		}
		return nil
	}
	for _, v := range sp.Variables {
		if _, ok := ix.cells[v]; ok {
			continue
		}
		id := fmt.Sprintf("%s (spec %s)", v, sp.Source())
		switch {
		case len(sp.Dimensions) == 0 && hasIndexed(t, v):
			id += ": variable is indexed, name its dimensions"
		case len(sp.Dimensions) > 0 && t.Has(v):
			id += ": variable has no index"
		}
		return errors.NewNotFound("variable", id)
	}
	return nil
}

func hasIndexed(t *draws.Table, v string) bool {
	prefix := v + "["
	for _, n := range t.Names() {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// orderVariables puts explicitly named variables in spec order. Regex
// matches keep first-seen column order.
func (ix *indexed) orderVariables() {
	if ix.spec.Regex {
		return
	}
	ix.variables = append(ix.variables[:0], ix.spec.Variables...)
}

// sortTuples orders index tuples position by position, numerically where
// possible, and renumbers the cell map to match.
func (ix *indexed) sortTuples() {
	order := sortedTupleOrder(ix.tuples)
	remap := make(map[int]int, len(order))
	tuples := make([][]string, len(order))
	for newIdx, oldIdx := range order {
		remap[oldIdx] = newIdx
		tuples[newIdx] = ix.tuples[oldIdx]
	}
	ix.tuples = tuples
	for v, byTuple := range ix.cells {
		renumbered := make(map[int]*draws.Column, len(byTuple))
		for oldIdx, col := range byTuple {
			renumbered[remap[oldIdx]] = col
		}
		ix.cells[v] = renumbered
	}
}

// inferKinds makes a dimension Int when every level is a canonical integer.
// "01" or "+1" keep the dimension String so they never merge with "1".
func (ix *indexed) inferKinds() {
	ix.dimKinds = make([]draws.Kind, len(ix.dimNames))
	for p := range ix.dimNames {
		kind := draws.Int
		for _, tup := range ix.tuples {
			if !canonicalInt(tup[p]) {
				kind = draws.String
				break
			}
		}
		ix.dimKinds[p] = kind
	}
}

func canonicalInt(level string) bool {
	n, err := strconv.Atoi(level)
	return err == nil && strconv.Itoa(n) == level
}

// long builds the long frame for the spec: identity columns, one column per
// index position, one value column per variable. Rows are tuple-major. A
// variable lacking a tuple that another variable has gets NaN there.
func (ix *indexed) long(t *draws.Table) *draws.Table {
	n := t.NumRows()
	rows := n * len(ix.tuples)

	cols := make([]*draws.Column, 0, len(draws.IdentityColumns)+len(ix.dimNames)+len(ix.variables))
	for _, id := range draws.IdentityColumns {
		src := t.MustColumn(id)
		b := draws.NewBuilder(id, draws.Int, rows)
		for range ix.tuples {
			for r := 0; r < n; r++ {
				b.AppendFrom(src, r)
			}
		}
		cols = append(cols, b.Column())
	}
	for p, name := range ix.dimNames {
		b := draws.NewBuilder(name, ix.dimKinds[p], rows)
		for _, tup := range ix.tuples {
			for r := 0; r < n; r++ {
				b.AppendString(tup[p])
			}
		}
		cols = append(cols, b.Column())
	}
	for _, v := range ix.variables {
		b := draws.NewBuilder(v, draws.Float, rows)
		for k := range ix.tuples {
			src, ok := ix.cells[v][k]
			for r := 0; r < n; r++ {
				if ok {
					b.AppendFrom(src, r)
				} else {
					b.AppendMissing()
				}
			}
		}
		cols = append(cols, b.Column())
	}
	return draws.MustNew(cols...)
}

// cellName renders a variable cell name, e.g. "b[1,2]".
func cellName(variable string, levels []string) string {
	if len(levels) == 0 {
		return variable
	}
	return variable + "[" + strings.Join(levels, ",") + "]"
}
