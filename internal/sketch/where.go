package sketch

import "encoding/json"

// WhereExpr is the canonical boolean predicate tree.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern keeps the variant set closed so the binder
// can type-switch exhaustively:
//   - All: conjunction, vacuously true when empty
//   - Any: disjunction
//   - Not: negation of a single sub-expression
//   - Predicate: a field/operator/value leaf
//
// Each sub-expression has exactly one parent; the tree is acyclic and
// finite-depth by construction.
type WhereExpr interface {
	whereNode() // sealed to this package
}

// All is a conjunction of sub-expressions. All{} is the canonical form of
// an omitted where clause and is vacuously true.
type All struct {
	Exprs []WhereExpr
}

func (All) whereNode() {}

// Any is a disjunction of sub-expressions.
type Any struct {
	Exprs []WhereExpr
}

func (Any) whereNode() {}

// Not negates a single sub-expression.
type Not struct {
	Expr WhereExpr
}

func (Not) whereNode() {}

// Predicate is a leaf comparison. After normalization Op is always a
// canonical Operator member and Value is a scalar or flat array.
type Predicate struct {
	Field string
	Op    Operator
	Value Value
}

func (Predicate) whereNode() {}

// MarshalJSON renders the wire shape {"all":[...]}.
func (a All) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]WhereExpr{"all": exprList(a.Exprs)})
}

// MarshalJSON renders the wire shape {"any":[...]}.
func (a Any) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]WhereExpr{"any": exprList(a.Exprs)})
}

// MarshalJSON renders the wire shape {"not": <expr>}.
func (n Not) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]WhereExpr{"not": n.Expr})
}

// MarshalJSON renders the wire shape [field, operator, value].
func (p Predicate) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Field, string(p.Op), p.Value})
}

func exprList(exprs []WhereExpr) []WhereExpr {
	if exprs == nil {
		return []WhereExpr{}
	}
	return exprs
}
