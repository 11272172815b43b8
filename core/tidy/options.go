// Package tidy reshapes posterior draws between the wide draws layout (one
// column per variable cell, e.g. "b[1,2]") and tidy layouts where index
// dimensions are columns.
//
// SpreadDraws and GatherDraws go from draws to tidy form; UnspreadDraws and
// UngatherDraws go back. Variable specs are parsed by package spec.
package tidy

import (
	"regexp"

	"github.com/FocuswithJustin/tidydraws/core/cache"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/core/spec"
)

// DefaultSep splits the bracketed index of a variable column, e.g. "1,2".
const DefaultSep = `[, ]`

// Options controls reshaping.
type Options struct {
	// Sep is a regular expression splitting index strings. Empty means DefaultSep.
	Sep string

	// Regex treats variable names in specs as anchored regular expressions.
	Regex bool

	// DropIndices omits the draw-identity columns from UnspreadDraws and
	// UngatherDraws output. They are still required on input.
	DropIndices bool
}

// DefaultOptions returns the default reshape options.
func DefaultOptions() Options {
	return Options{Sep: DefaultSep}
}

func (o Options) specOptions() spec.Options {
	return spec.Options{Regex: o.Regex}
}

// patterns memoizes compiled separators and variable-name patterns.
var patterns = cache.NewMemo(cache.DefaultConfig(), regexp.Compile)

func (o Options) separator() (*regexp.Regexp, error) {
	sep := o.Sep
	if sep == "" {
		sep = DefaultSep
	}
	re, err := patterns.Get(sep)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "sep",
			Value:   sep,
			Message: "invalid separator pattern: " + err.Error(),
		}
	}
	return re, nil
}

func variablePattern(name string) (*regexp.Regexp, error) {
	re, err := patterns.Get("^(?:" + name + ")$")
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "variable",
			Value:   name,
			Message: "invalid variable pattern: " + err.Error(),
		}
	}
	return re, nil
}

func parseSpecs(specs []string, opts Options) ([]*spec.Spec, error) {
	parsed, err := spec.ParseAll(specs, opts.specOptions())
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func sources(specs []*spec.Spec) []string {
	out := make([]string, len(specs))
	for i, sp := range specs {
		out[i] = sp.Source()
	}
	return out
}
