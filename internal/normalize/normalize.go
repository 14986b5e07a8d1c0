// Package normalize lowers the raw parse tree into the canonical query
// sketch: stable field names, canonical operator vocabulary, explicit
// defaults, and a canonical boolean predicate tree.
//
// Normalization fails soft. Problems are recorded as diagnostics and
// safe defaults are substituted, so a usable (if degraded) sketch is
// always produced. Callers check Diagnostics.HasErrors before trusting
// the sketch for compilation.
package normalize

import (
	"strconv"
	"strings"

	"github.com/fetchgraph/sketch/internal/config"
	"github.com/fetchgraph/sketch/internal/diag"
	"github.com/fetchgraph/sketch/internal/parser"
	"github.com/fetchgraph/sketch/internal/rawval"
	"github.com/fetchgraph/sketch/internal/sketch"
)

// ParseAndNormalize parses textual or structured input and normalizes
// the result in one step. Diagnostics from both stages are concatenated
// in order.
func ParseAndNormalize(src any, spec *config.Spec) (sketch.Sketch, diag.Diagnostics) {
	opts := parser.Options{
		DuplicateKeysError: spec.Policy.DuplicateKeys == config.DuplicateKeysError,
	}
	node, diags := parser.ParseInput(src, opts)
	sk, normDiags := Normalize(node, spec)
	diags.Extend(normDiags)
	return sk, diags
}

// Normalize lowers a raw tree into the canonical sketch. The raw tree is
// not retained; diagnostics reference its source paths.
func Normalize(node rawval.Node, spec *config.Spec) (sketch.Sketch, diag.Diagnostics) {
	n := &normalizer{spec: spec}
	sk := n.run(node)
	return sk, n.diags
}

type normalizer struct {
	spec  *config.Spec
	diags diag.Diagnostics
}

func (n *normalizer) run(node rawval.Node) sketch.Sketch {
	sk := sketch.Sketch{
		Get:   append([]string(nil), n.spec.Defaults.Get...),
		With:  append([]string(nil), n.spec.Defaults.With...),
		Take:  n.spec.Defaults.Take,
		Where: sketch.All{},
	}

	obj, ok := node.Value.(rawval.Object)
	if !ok {
		n.diags.Addf(diag.CodeParseError, diag.SeverityError, node.Path,
			"Sketch must be an object, got %s", node.TypeName())
		return sk
	}

	canonical := n.canonicalKeys(obj)

	if from, ok := canonical.Get("from"); ok {
		if s, ok := from.Value.(rawval.String); ok && s != "" {
			sk.From = string(s)
		} else {
			n.diags.Addf(diag.CodeMissingRequired, diag.SeverityError, from.Path,
				"'from' must be a non-empty string, got %s", from.TypeName())
		}
	} else {
		n.diags.Add(diag.CodeMissingRequired, "Missing required key 'from'", "$.from", diag.SeverityError)
	}

	if where, ok := canonical.Get("where"); ok {
		sk.Where = n.normalizeWhere(where)
	} else {
		n.diags.Add(diag.CodeMissingRequired,
			"Missing required key 'where'; inserted empty filter", "$.where", diag.SeverityWarning)
	}

	if get, ok := canonical.Get("get"); ok {
		sk.Get = n.normalizeNameList(get, "get")
		if len(sk.Get) == 0 {
			sk.Get = append([]string(nil), n.spec.Defaults.Get...)
		}
	}
	if with, ok := canonical.Get("with"); ok {
		sk.With = n.normalizeNameList(with, "with")
	}
	if take, ok := canonical.Get("take"); ok {
		sk.Take = n.normalizeTake(take)
	}

	return sk
}

// canonicalKeys maps surface keys onto the canonical five via the alias
// table. Unknown keys warn and drop. When an alias and its canonical key
// both appear, the later occurrence wins, matching duplicate-key
// resolution in the parser.
func (n *normalizer) canonicalKeys(obj rawval.Object) rawval.Object {
	aliases := n.spec.KeyAliases()
	var out rawval.Object
	for _, m := range obj {
		canonical, ok := aliases[m.Key]
		if !ok {
			n.diags.Addf(diag.CodeUnknownKey, diag.SeverityWarning, m.Node.Path,
				"Unknown key %q", m.Key)
			continue
		}
		if i := out.Index(canonical); i >= 0 {
			out[i].Node = m.Node
			continue
		}
		out = append(out, rawval.Member{Key: canonical, Node: m.Node})
	}
	return out
}

// normalizeNameList accepts a string, or a list of strings, for get/with.
// A single scalar is promoted to a one-element list. A wildcard entry in
// get collapses the list to the sentinel.
func (n *normalizer) normalizeNameList(node rawval.Node, key string) []string {
	items := rawval.Array{node}
	if arr, ok := node.Value.(rawval.Array); ok {
		items = arr
	}

	var out []string
	for _, item := range items {
		s, ok := item.Value.(rawval.String)
		if !ok {
			n.diags.Addf(diag.CodeBadClauseValue, diag.SeverityWarning, item.Path,
				"Entry of %q must be a string, got %s", key, item.TypeName())
			continue
		}
		out = append(out, string(s))
	}

	if key == "get" && len(out) > 1 {
		for _, s := range out {
			if s == sketch.Wildcard {
				n.diags.Add(diag.CodeBadClauseValue,
					"Wildcard '*' makes other get entries redundant; keeping wildcard only",
					node.Path, diag.SeverityWarning)
				return []string{sketch.Wildcard}
			}
		}
	}
	return out
}

// normalizeTake enforces a positive integer row limit; anything else is
// an error diagnostic and the configured default is substituted.
func (n *normalizer) normalizeTake(node rawval.Node) int {
	fallback := n.spec.Defaults.Take
	switch v := node.Value.(type) {
	case rawval.Int:
		if v > 0 {
			return int(v)
		}
	case rawval.Float:
		if f := float64(v); f > 0 && f == float64(int64(f)) {
			return int(f)
		}
	case rawval.String:
		if i, err := strconv.Atoi(strings.TrimSpace(string(v))); err == nil && i > 0 {
			return i
		}
	}
	n.diags.Add(diag.CodeInvalidTake,
		"Invalid take value; expected a positive integer", node.Path, diag.SeverityError)
	return fallback
}
