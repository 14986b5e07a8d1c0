package sketch

import "sort"

// Operator is the canonical comparison operator vocabulary. The set is
// closed: after normalization every predicate carries one of these
// members, never a raw surface token.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpContains Operator = "contains"
	OpStarts   Operator = "starts"
	OpEnds     Operator = "ends"
	OpIn       Operator = "in"
	OpNotIn    Operator = "not_in"
	OpBetween  Operator = "between"
	OpBefore   Operator = "before"
	OpAfter    Operator = "after"
	OpIs       Operator = "is"
	OpSimilar  Operator = "similar"
)

// canonicalOperators is the full closed set.
var canonicalOperators = map[Operator]struct{}{
	OpEq: {}, OpNe: {}, OpLt: {}, OpLte: {}, OpGt: {}, OpGte: {},
	OpContains: {}, OpStarts: {}, OpEnds: {}, OpIn: {}, OpNotIn: {},
	OpBetween: {}, OpBefore: {}, OpAfter: {}, OpIs: {}, OpSimilar: {},
}

// DefaultOperatorAliases maps accepted surface tokens onto canonical
// operators. Lookup keys are case-folded before consulting the table.
// The table is copied into config.Spec so deployments can extend it.
func DefaultOperatorAliases() map[string]string {
	return map[string]string{
		"=":      string(OpEq),
		"==":     string(OpEq),
		"!=":     string(OpNe),
		"<>":     string(OpNe),
		"neq":    string(OpNe),
		"<":      string(OpLt),
		"<=":     string(OpLte),
		">":      string(OpGt),
		">=":     string(OpGte),
		"~":      string(OpContains),
		"has":    string(OpContains),
		"like":   string(OpIs),
		"ilike":  string(OpIs),
		"prefix": string(OpStarts),
		"suffix": string(OpEnds),
		"within": string(OpIn),
		"nin":    string(OpNotIn),
	}
}

// IsCanonical reports whether tok is a member of the canonical vocabulary.
func IsCanonical(tok string) bool {
	_, ok := canonicalOperators[Operator(tok)]
	return ok
}

// CanonicalOperators returns the canonical vocabulary in sorted order.
func CanonicalOperators() []string {
	out := make([]string, 0, len(canonicalOperators))
	for op := range canonicalOperators {
		out = append(out, string(op))
	}
	sort.Strings(out)
	return out
}
