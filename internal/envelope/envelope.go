// Package envelope integrates sketches into selector collections. A
// sketch travels inside its host document wrapped in an envelope that
// names the dialect, so consumers that do not understand the dialect can
// skip it and everything else passes through untouched.
package envelope

import (
	"fmt"

	"github.com/fetchgraph/sketch/internal/bind"
	"github.com/fetchgraph/sketch/internal/catalog"
	"github.com/fetchgraph/sketch/internal/config"
	"github.com/fetchgraph/sketch/internal/normalize"
	"github.com/fetchgraph/sketch/internal/relquery"
)

// DialectID identifies the sketch dialect this front end compiles.
const DialectID = "fetchgraph.sketch@v0"

// Envelope marker keys. $dsl carries the dialect id; the sketch itself
// sits under either $sketch or payload.
const (
	dialectKey = "$dsl"
	sketchKey  = "$sketch"
	payloadKey = "payload"
)

// IsSketch reports whether v is a sketch envelope: a map carrying the
// $dsl marker. The dialect id is not validated here; Unwrap does that.
func IsSketch(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[dialectKey]
	return ok
}

// Unwrap extracts the payload from a sketch envelope. The dialect id
// must match DialectID exactly; an unknown dialect is an error so hosts
// never silently compile a sketch written for a different front end.
func Unwrap(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("envelope must be an object, got %T", v)
	}
	dialect, ok := m[dialectKey].(string)
	if !ok {
		return nil, fmt.Errorf("envelope missing %s dialect marker", dialectKey)
	}
	if dialect != DialectID {
		return nil, fmt.Errorf("unsupported dialect %q, this front end compiles %q", dialect, DialectID)
	}
	if payload, ok := m[sketchKey]; ok {
		return payload, nil
	}
	if payload, ok := m[payloadKey]; ok {
		return payload, nil
	}
	// The envelope body minus the markers is itself the sketch.
	body := make(map[string]any, len(m))
	for k, val := range m {
		if k == dialectKey {
			continue
		}
		body[k] = val
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("envelope carries no sketch payload")
	}
	return body, nil
}

// Compile unwraps, normalizes, and binds one envelope. Normalization
// diagnostics with error severity reject the sketch with their summary;
// warnings are tolerated.
func Compile(v any, cat *catalog.Catalog, spec *config.Spec) (relquery.Query, error) {
	payload, err := Unwrap(v)
	if err != nil {
		return relquery.Query{}, err
	}
	sk, diags := normalize.ParseAndNormalize(payload, spec)
	if diags.HasErrors() {
		return relquery.Query{}, fmt.Errorf("invalid sketch: %s", diags.Summary())
	}
	return bind.Compile(sk, cat)
}

// CompileSelectors walks a selector list, compiling every sketch
// envelope in place and passing native selectors through untouched. The
// compiled query replaces the envelope as a marshaled-ready value. The
// first failing envelope aborts with its position.
func CompileSelectors(selectors []any, cat *catalog.Catalog, spec *config.Spec) ([]any, error) {
	out := make([]any, len(selectors))
	for i, sel := range selectors {
		if !IsSketch(sel) {
			out[i] = sel
			continue
		}
		q, err := Compile(sel, cat, spec)
		if err != nil {
			return nil, fmt.Errorf("selector %d: %w", i, err)
		}
		out[i] = q
	}
	return out, nil
}
