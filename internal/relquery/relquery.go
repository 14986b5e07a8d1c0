// Package relquery defines the backend-neutral relational query produced
// by the binder. It is the contract with downstream planners: every name
// in it is schema-verified and every operator canonical, so consumers
// evaluate it without re-validation.
package relquery

import (
	"encoding/json"

	"github.com/fetchgraph/sketch/internal/sketch"
)

// Relation is one verified join edge of the query.
type Relation struct {
	// Alias is the deterministic name for the joined entity instance:
	// the root entity name plus the relation-name path, underscore
	// joined.
	Alias   string `json:"alias"`
	Source  string `json:"source"`
	Target  string `json:"target"`
	Name    string `json:"name"`
	FromKey string `json:"from_key"`
	ToKey   string `json:"to_key"`
}

// Filter is the compiled predicate tree.
//
// Sealed interface - only Comparison, AndGroup, OrGroup, and NotGroup
// implement it, so planners can type-switch exhaustively.
type Filter interface {
	filterNode()
}

// Comparison is a leaf predicate over a verified field.
type Comparison struct {
	// Field is always entity-qualified: "<alias>.<column>" for a joined
	// entity, "<root>.<column>" for the root.
	Field string
	Op    sketch.Operator
	Value sketch.Value
}

func (Comparison) filterNode() {}

// AndGroup is a conjunction of compiled filters.
type AndGroup struct {
	Clauses []Filter
}

func (AndGroup) filterNode() {}

// OrGroup is a disjunction of compiled filters.
type OrGroup struct {
	Clauses []Filter
}

func (OrGroup) filterNode() {}

// NotGroup negates one compiled filter.
type NotGroup struct {
	Clause Filter
}

func (NotGroup) filterNode() {}

// Query is the complete compiled query. Select is empty when the sketch
// asked for all fields; consumers treat an empty select as "everything".
type Query struct {
	RootEntity string
	Select     []string
	Relations  []Relation
	Filters    Filter
	Limit      int
	Offset     int
}

// RelationPaths returns the join-path identifiers of the query's
// relations, in relation order.
func (q Query) RelationPaths() []string {
	out := make([]string, 0, len(q.Relations))
	for _, r := range q.Relations {
		out = append(out, r.Alias)
	}
	return out
}

// MarshalJSON renders the stable wire shape consumed by planners:
//
//	{op: "query", root_entity, select?, relations, filters, limit,
//	 offset, case_sensitivity}
//
// relations carry only the join-path identifiers; the shared catalog
// lets a consumer recover the join keys. select is omitted when empty.
// case_sensitivity is always false: string comparison is
// case-insensitive at this layer by contract.
func (q Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op              string   `json:"op"`
		RootEntity      string   `json:"root_entity"`
		Select          []string `json:"select,omitempty"`
		Relations       []string `json:"relations"`
		Filters         Filter   `json:"filters"`
		Limit           int      `json:"limit"`
		Offset          int      `json:"offset"`
		CaseSensitivity bool     `json:"case_sensitivity"`
	}{
		Op:         "query",
		RootEntity: q.RootEntity,
		Select:     q.Select,
		Relations:  q.RelationPaths(),
		Filters:    q.Filters,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
}

// MarshalJSON renders {op, field, value}.
func (c Comparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string       `json:"op"`
		Field string       `json:"field"`
		Value sketch.Value `json:"value"`
	}{Op: string(c.Op), Field: c.Field, Value: c.Value})
}

// MarshalJSON renders {op: "and", clauses}.
func (g AndGroup) MarshalJSON() ([]byte, error) {
	return marshalGroup("and", g.Clauses)
}

// MarshalJSON renders {op: "or", clauses}.
func (g OrGroup) MarshalJSON() ([]byte, error) {
	return marshalGroup("or", g.Clauses)
}

// MarshalJSON renders {op: "not", clause}.
func (g NotGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op     string `json:"op"`
		Clause Filter `json:"clause"`
	}{Op: "not", Clause: g.Clause})
}

func marshalGroup(op string, clauses []Filter) ([]byte, error) {
	if clauses == nil {
		clauses = []Filter{}
	}
	return json.Marshal(struct {
		Op      string   `json:"op"`
		Clauses []Filter `json:"clauses"`
	}{Op: op, Clauses: clauses})
}
