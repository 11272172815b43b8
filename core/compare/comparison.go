// Package compare builds comparisons between the levels of a factor, such as
// every pairwise difference or each level against a control.
package compare

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/tidydraws/core/errors"
)

// Kind selects how levels are paired.
type Kind int

const (
	// KindDefault pairs ordered levels like KindOrdered and all others like KindPairwise.
	KindDefault Kind = iota
	// KindPairwise compares every level with every earlier level.
	KindPairwise
	// KindControl compares every level with one control level.
	KindControl
	// KindOrdered compares each level with the one before it.
	KindOrdered
	// KindExplicit uses a fixed list of pairs.
	KindExplicit
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindPairwise:
		return "pairwise"
	case KindControl:
		return "control"
	case KindOrdered:
		return "ordered"
	case KindExplicit:
		return "explicit"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Pair is the comparison A - B.
type Pair struct {
	A, B string
}

// Label renders the pair with an operator, e.g. "b - a".
func (p Pair) Label(op string) string {
	return p.A + " " + op + " " + p.B
}

// Comparison describes which pairs of levels to compare.
type Comparison struct {
	Kind     Kind
	Control  string // KindControl only; empty means the first level
	Explicit []Pair // KindExplicit only
}

// Default resolves to Ordered for ordered factors and Pairwise otherwise.
func Default() Comparison { return Comparison{Kind: KindDefault} }

// Pairwise compares every pair of levels.
func Pairwise() Comparison { return Comparison{Kind: KindPairwise} }

// Control compares every level with level. An empty level means the first.
func Control(level string) Comparison { return Comparison{Kind: KindControl, Control: level} }

// Ordered compares adjacent levels.
func Ordered() Comparison { return Comparison{Kind: KindOrdered} }

// Explicit compares exactly the given pairs.
func Explicit(pairs ...Pair) Comparison {
	return Comparison{Kind: KindExplicit, Explicit: append([]Pair(nil), pairs...)}
}

// Resolve replaces KindDefault with Ordered or Pairwise.
func (c Comparison) Resolve(ordered bool) Comparison {
	if c.Kind != KindDefault {
		return c
	}
	if ordered {
		return Ordered()
	}
	return Pairwise()
}

// Pairs lists the comparisons c makes over levels, which must be distinct.
// KindDefault is treated as unordered.
//
// For N levels Pairwise yields N(N-1)/2 pairs and Control and Ordered yield
// N-1.
func Pairs(levels []string, c Comparison) ([]Pair, error) {
	index := make(map[string]int, len(levels))
	for i, l := range levels {
		if _, dup := index[l]; dup {
			return nil, errors.NewDuplicate("level", l)
		}
		index[l] = i
	}

	var pairs []Pair
	switch c.Resolve(false).Kind {
	case KindPairwise:
		for i := 0; i < len(levels); i++ {
			for j := i + 1; j < len(levels); j++ {
				pairs = append(pairs, Pair{A: levels[j], B: levels[i]})
			}
		}
	case KindControl:
		if len(levels) == 0 {
			return nil, nil
		}
		control := c.Control
		if control == "" {
			control = levels[0]
		}
		if _, ok := index[control]; !ok {
			return nil, unknownLevel("control", control, levels)
		}
		for _, l := range levels {
			if l != control {
				pairs = append(pairs, Pair{A: l, B: control})
			}
		}
	case KindOrdered:
		for i := 1; i < len(levels); i++ {
			pairs = append(pairs, Pair{A: levels[i], B: levels[i-1]})
		}
	case KindExplicit:
		for _, p := range c.Explicit {
			for _, l := range []string{p.A, p.B} {
				if _, ok := index[l]; !ok {
					return nil, unknownLevel("comparison", l, levels)
				}
			}
			pairs = append(pairs, p)
		}
	default:
		return nil, errors.NewUnsupported("comparison", c.Kind.String())
	}
	return pairs, nil
}

func unknownLevel(field, level string, levels []string) error {
	return &errors.ValidationError{
		Field:   field,
		Value:   level,
		Message: fmt.Sprintf("level %q is not one of %s", level, strings.Join(levels, ", ")),
	}
}

// Parse reads a comparison from text: "default", "pairwise", "ordered",
// "control", "control=<level>", or "explicit=<a>:<b>,<c>:<d>" where each
// item means a - b.
func Parse(s string) (Comparison, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), "=")
	switch strings.ToLower(name) {
	case "", "default":
		return Default(), nil
	case "pairwise":
		return Pairwise(), nil
	case "ordered":
		return Ordered(), nil
	case "control":
		return Control(strings.TrimSpace(arg)), nil
	case "explicit":
		if !hasArg || strings.TrimSpace(arg) == "" {
			return Comparison{}, errors.NewValidation("comparison", "explicit needs pairs, e.g. explicit=b:a")
		}
		var pairs []Pair
		for _, item := range strings.Split(arg, ",") {
			a, b, ok := strings.Cut(item, ":")
			a, b = strings.TrimSpace(a), strings.TrimSpace(b)
			if !ok || a == "" || b == "" {
				return Comparison{}, &errors.ValidationError{Field: "comparison", Value: item, Message: "want <a>:<b>"}
			}
			pairs = append(pairs, Pair{A: a, B: b})
		}
		return Explicit(pairs...), nil
	}
	return Comparison{}, errors.NewUnsupported("comparison", fmt.Sprintf("%q", s))
}
