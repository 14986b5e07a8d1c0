// Package config holds the DSL spec tables: canonical key names and
// their accepted aliases, defaulting rules, the operator vocabulary, and
// the binder's resolution policy.
//
// The tables are explicit immutable lookup structures constructed once
// and passed by reference into the normalizer and binder, never ambient
// global state. Defaults can be overridden by a YAML spec file and by
// environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/fetchgraph/sketch/internal/sketch"
)

// Tie-break strategies for equal-length join paths.
const (
	TieBreakLexical  = "lexical"
	TieBreakDeclared = "declared"
)

// Duplicate-key policies for the tolerant parser.
const (
	DuplicateKeysWarn  = "warn"
	DuplicateKeysError = "error"
)

// KeySpec describes one canonical sketch key.
type KeySpec struct {
	Aliases  []string `yaml:"aliases"`
	Required bool     `yaml:"required"`
}

// Defaults holds the values substituted for absent sketch keys.
type Defaults struct {
	Get  []string `yaml:"get"`
	With []string `yaml:"with"`
	Take int      `yaml:"take" env:"SKETCH_DEFAULT_TAKE"`
}

// Operators holds the operator vocabulary configuration.
type Operators struct {
	Aliases map[string]string `yaml:"aliases"`
	// AutocorrectCutoff is the minimum difflib-style similarity ratio
	// for correcting a misspelled operator. Zero disables autocorrect.
	AutocorrectCutoff float64 `yaml:"autocorrect_cutoff" env:"SKETCH_OP_AUTOCORRECT_CUTOFF"`
}

// Policy configures the binder's join resolution.
type Policy struct {
	TieBreak      string `yaml:"tie_break" env:"SKETCH_TIE_BREAK"`
	DuplicateKeys string `yaml:"duplicate_keys" env:"SKETCH_DUPLICATE_KEYS"`
}

// Spec bundles all DSL configuration consumed by parse/normalize/bind.
type Spec struct {
	Defaults  Defaults           `yaml:"defaults"`
	Keys      map[string]KeySpec `yaml:"keys"`
	Operators Operators          `yaml:"operators"`
	Policy    Policy             `yaml:"policy"`
}

// Default returns the built-in spec. The key alias table mirrors the
// surface synonyms the sketch language accepts for its five canonical
// keys.
func Default() *Spec {
	return &Spec{
		Defaults: Defaults{
			Get:  []string{sketch.Wildcard},
			With: []string{},
			Take: 200,
		},
		Keys: map[string]KeySpec{
			"from":  {Aliases: []string{"root", "entity", "root_entity"}, Required: true},
			"where": {Aliases: []string{"find", "filter", "filters"}, Required: true},
			"get":   {Aliases: []string{"select", "fields"}},
			"with":  {Aliases: []string{"include", "joins", "join", "relations"}},
			"take":  {Aliases: []string{"limit", "top"}},
		},
		Operators: Operators{
			Aliases:           sketch.DefaultOperatorAliases(),
			AutocorrectCutoff: 0.8,
		},
		Policy: Policy{
			TieBreak:      TieBreakLexical,
			DuplicateKeys: DuplicateKeysWarn,
		},
	}
}

// Load builds a Spec from the defaults, an optional YAML spec file, and
// environment variable overrides, in that order.
func Load(path string) (*Spec, error) {
	spec := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read spec file: %w", err)
		}
		if err := yaml.Unmarshal(data, spec); err != nil {
			return nil, fmt.Errorf("parse spec file %s: %w", path, err)
		}
	}

	if err := env.Parse(spec); err != nil {
		return nil, fmt.Errorf("parse spec environment: %w", err)
	}

	return spec.validate()
}

func (s *Spec) validate() (*Spec, error) {
	switch s.Policy.TieBreak {
	case TieBreakLexical, TieBreakDeclared:
	default:
		return nil, fmt.Errorf("invalid tie_break %q: must be %q or %q",
			s.Policy.TieBreak, TieBreakLexical, TieBreakDeclared)
	}
	switch s.Policy.DuplicateKeys {
	case DuplicateKeysWarn, DuplicateKeysError:
	default:
		return nil, fmt.Errorf("invalid duplicate_keys %q: must be %q or %q",
			s.Policy.DuplicateKeys, DuplicateKeysWarn, DuplicateKeysError)
	}
	for surface, canonical := range s.Operators.Aliases {
		if !sketch.IsCanonical(canonical) {
			return nil, fmt.Errorf("operator alias %q maps to unknown operator %q", surface, canonical)
		}
	}
	return s, nil
}

// KeyAliases flattens the key table into a surface-token → canonical-key
// lookup map. Canonical keys map to themselves.
func (s *Spec) KeyAliases() map[string]string {
	out := make(map[string]string, len(s.Keys)*3)
	for canonical, meta := range s.Keys {
		out[canonical] = canonical
		for _, alias := range meta.Aliases {
			out[alias] = canonical
		}
	}
	return out
}
