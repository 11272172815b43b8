package main

import (
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// configPaths are read in order when present; --config adds one more.
var configPaths = []string{
	"~/.config/tidydraws/config.yaml",
	".tidydraws.yaml",
	".tidydraws.json",
}

// yamlConfig resolves flags from a YAML or JSON document keyed by flag name.
// Keys may use hyphens or underscores: log-level and log_level are the same.
func yamlConfig(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, err
	}
	return kong.ResolverFunc(func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if v, ok := values[flag.Name]; ok {
			return v, nil
		}
		if v, ok := values[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
			return v, nil
		}
		return nil, nil
	}), nil
}
