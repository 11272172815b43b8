// Package spec parses variable specifications such as "b[i,j]",
// "c(mu, sigma)[group]" and "b[i,v] | v".
//
// A spec names one or more model variables and the dimensions their
// bracketed indices are split into. Two dimension forms pivot data into
// columns instead of rows:
//   - "..": the dimension is left wide, producing columns like "b.1", "b.2".
//   - "| v": after the brackets, the levels of dimension v become columns.
//
// Variable names are identifiers or quoted strings. With Options.Regex set,
// names are anchored regular expressions; patterns using regex syntax must
// be quoted, e.g. `"r_.*"[i]`.
package spec

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/tidydraws/core/cache"
	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// WideDots is the dimension name that leaves a dimension wide.
const WideDots = ".."

// Spec is a parsed variable specification.
type Spec struct {
	// Variables are the variable base names (or patterns when Regex is set).
	Variables []string

	// Dimensions name each bracketed index position, in order.
	// A spec without brackets has no dimensions.
	Dimensions []string

	// Wide is the dimension named after "|", or empty.
	Wide string

	// Regex marks Variables as regular expressions.
	Regex bool

	source string
}

// Options controls parsing.
type Options struct {
	// Regex treats variable names as anchored regular expressions.
	Regex bool
}

//nolint:govet // participle grammar tags are not standard struct tags
type specGrammar struct {
	Names *namesGrammar `@@`
	Index *indexGrammar `( "[" @@ "]" )?`
	Wide  *string       `( "|" @Ident )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type namesGrammar struct {
	Group  []string `  "c"? "(" @(Ident | String) ( "," @(Ident | String) )* ")"`
	Single *string  `| @(Ident | String)`
}

//nolint:govet // participle grammar tags are not standard struct tags
type indexGrammar struct {
	Dims []string `( @(Dots | Ident) ( "," @(Dots | Ident) )* )?`
}

// specLexer defines the tokens of a variable spec.
// Dots must precede Ident: identifiers may start with a dot.
var specLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: "\"(?:\\\\.|[^\"])*\"|`[^`]*`"},
	{Name: "Dots", Pattern: `\.\.`},
	{Name: "Ident", Pattern: `[A-Za-z_.][A-Za-z0-9_.]*`},
	{Name: "Punct", Pattern: `[\[\](),|]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// specParser is the participle parser for variable specs.
var specParser = participle.MustBuild[specGrammar](
	participle.Lexer(specLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

type memoKey struct {
	source string
	regex  bool
}

// parsed memoizes successful parses; callers receive clones.
var parsed = cache.NewMemo(cache.DefaultConfig(), func(k memoKey) (*Spec, error) {
	return parse(k.source, Options{Regex: k.regex})
})

// Parse parses a single variable spec.
func Parse(s string, opts Options) (*Spec, error) {
	sp, err := parsed.Get(memoKey{source: strings.TrimSpace(s), regex: opts.Regex})
	if err != nil {
		return nil, err
	}
	return sp.Clone(), nil
}

// MustParse is like Parse but panics on error.
// This is intended for tests and package-level variables.
func MustParse(s string, opts Options) *Spec {
	sp, err := Parse(s, opts)
	if err != nil {
		panic(fmt.Sprintf("spec: %v", err))
	}
	return sp
}

// ParseAll parses each spec string in order. The error names the first
// spec that failed.
func ParseAll(specs []string, opts Options) ([]*Spec, error) {
	if len(specs) == 0 {
		return nil, errors.NewValidation("specs", "at least one variable spec is required")
	}
	out := make([]*Spec, 0, len(specs))
	for i, s := range specs {
		sp, err := Parse(s, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "spec %d", i+1)
		}
		out = append(out, sp)
	}
	return out, nil
}

func parse(s string, opts Options) (*Spec, error) {
	if s == "" {
		return nil, errors.NewParse("variable spec", s, "empty spec")
	}

	g, err := specParser.ParseString("", s)
	if err != nil {
		return nil, &errors.ParseError{
			Format:  "variable spec",
			Path:    s,
			Message: err.Error(),
			Err:     err,
		}
	}

	sp := &Spec{Regex: opts.Regex, source: s}
	if g.Names.Single != nil {
		sp.Variables = []string{*g.Names.Single}
	} else {
		sp.Variables = g.Names.Group
	}
	if g.Index != nil {
		sp.Dimensions = g.Index.Dims
	}
	if g.Wide != nil {
		sp.Wide = *g.Wide
	}

	if err := sp.validate(); err != nil {
		return nil, err
	}
	return sp, nil
}

// validate checks the semantic rules the grammar cannot express.
func (sp *Spec) validate() error {
	seenVar := make(map[string]bool, len(sp.Variables))
	for _, v := range sp.Variables {
		if v == "" {
			return errors.NewValidation(sp.source, "variable name is empty")
		}
		if seenVar[v] {
			return &errors.DuplicateError{What: "variable", Key: v, Detail: "in spec " + sp.source}
		}
		seenVar[v] = true
	}

	seenDim := make(map[string]bool, len(sp.Dimensions))
	for _, d := range sp.Dimensions {
		if d == WideDots {
			continue
		}
		if isReserved(d) {
			return errors.NewValidation(sp.source,
				fmt.Sprintf("dimension %q collides with a reserved column name", d))
		}
		if seenDim[d] {
			return &errors.DuplicateError{What: "dimension", Key: d, Detail: "in spec " + sp.source}
		}
		if seenVar[d] {
			return &errors.DuplicateError{What: "column name", Key: d,
				Detail: "used as both variable and dimension in spec " + sp.source}
		}
		seenDim[d] = true
	}

	if sp.Wide != "" {
		if len(sp.Dimensions) == 0 {
			return errors.NewValidation(sp.source, "wide dimension given without bracketed dimensions")
		}
		if !seenDim[sp.Wide] {
			return errors.NewValidation(sp.source,
				fmt.Sprintf("wide dimension %q is not one of the dimensions %v", sp.Wide, sp.Dimensions))
		}
	}
	return nil
}

func isReserved(name string) bool {
	switch name {
	case ".chain", ".iteration", ".draw", ".variable", ".value":
		return true
	}
	return false
}

// Clone returns a deep copy.
func (sp *Spec) Clone() *Spec {
	cp := *sp
	cp.Variables = append([]string(nil), sp.Variables...)
	cp.Dimensions = append([]string(nil), sp.Dimensions...)
	return &cp
}

// Source returns the text the spec was parsed from.
func (sp *Spec) Source() string {
	if sp.source == "" {
		return sp.String()
	}
	return sp.source
}

// HasWide reports whether the spec pivots a dimension with "|".
func (sp *Spec) HasWide() bool { return sp.Wide != "" }

// DotsCount returns the number of ".." dimensions.
func (sp *Spec) DotsCount() int {
	n := 0
	for _, d := range sp.Dimensions {
		if d == WideDots {
			n++
		}
	}
	return n
}

// LongDimensions returns the dimension names that stay as row keys: all
// dimensions except ".." and the "|" dimension.
func (sp *Spec) LongDimensions() []string {
	var out []string
	for _, d := range sp.Dimensions {
		if d != WideDots && d != sp.Wide {
			out = append(out, d)
		}
	}
	return out
}

// String renders the spec canonically, e.g. `c(a, b)[i, j] | j`.
func (sp *Spec) String() string {
	var sb strings.Builder
	names := make([]string, len(sp.Variables))
	for i, v := range sp.Variables {
		names[i] = renderName(v)
	}
	if len(names) == 1 {
		sb.WriteString(names[0])
	} else {
		sb.WriteString("c(")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString(")")
	}
	if len(sp.Dimensions) > 0 {
		sb.WriteString("[")
		sb.WriteString(strings.Join(sp.Dimensions, ", "))
		sb.WriteString("]")
	}
	if sp.Wide != "" {
		sb.WriteString(" | ")
		sb.WriteString(sp.Wide)
	}
	return sb.String()
}

func renderName(v string) string {
	for i, r := range v {
		ok := r == '_' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(i > 0 && r >= '0' && r <= '9')
		if !ok {
			return fmt.Sprintf("%q", v)
		}
	}
	return v
}
