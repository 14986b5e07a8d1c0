package normalize

import (
	"strings"

	"github.com/fetchgraph/sketch/internal/diag"
	"github.com/fetchgraph/sketch/internal/rawval"
	"github.com/fetchgraph/sketch/internal/sketch"
)

// resolveOperator maps a surface operator token onto the canonical
// vocabulary. Resolution order: case-fold, canonical membership, the
// configured alias table, then a closest-match autocorrect against the
// canonical set. Autocorrect emits a warning; an unresolvable token is
// an error and resolution fails.
func (n *normalizer) resolveOperator(raw, path string) (sketch.Operator, bool) {
	tok := strings.ToLower(strings.TrimSpace(raw))
	if sketch.IsCanonical(tok) {
		return sketch.Operator(tok), true
	}
	if canonical, ok := n.spec.Operators.Aliases[tok]; ok {
		return sketch.Operator(canonical), true
	}

	if cutoff := n.spec.Operators.AutocorrectCutoff; cutoff > 0 {
		if best, score := closestOperator(tok); score >= cutoff {
			n.diags.Addf(diag.CodeOpAutocorrect, diag.SeverityWarning, path,
				"Unknown operator %q corrected to %q", raw, best)
			return sketch.Operator(best), true
		}
	}

	n.diags.Addf(diag.CodeUnknownOp, diag.SeverityError, path,
		"Unknown operator %q; expected one of %s", raw,
		strings.Join(sketch.CanonicalOperators(), ", "))
	return "", false
}

// closestOperator returns the canonical operator with the highest
// similarity ratio to tok. Ties resolve to the lexicographically first
// candidate, which CanonicalOperators already guarantees by ordering.
func closestOperator(tok string) (string, float64) {
	best, bestScore := "", 0.0
	for _, op := range sketch.CanonicalOperators() {
		if score := similarityRatio(tok, op); score > bestScore {
			best, bestScore = op, score
		}
	}
	return best, bestScore
}

// similarityRatio is the classic 2*M/T measure: twice the length of the
// longest common subsequence over the total length of both strings.
func similarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(prev[len(b)]) / float64(len(a)+len(b))
}

// isComparisonObject reports whether obj is the {field, op?, value}
// comparison form rather than an all/any/not group.
func isComparisonObject(obj rawval.Object) bool {
	if t, ok := obj.Get("type"); ok {
		if s, isStr := t.Value.(rawval.String); isStr && s == "comparison" {
			return true
		}
	}
	_, hasField := obj.Get("field")
	_, hasValue := obj.Get("value")
	return hasField && hasValue
}
