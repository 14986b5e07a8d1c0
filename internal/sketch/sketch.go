// Package sketch defines the canonical query sketch: the normalized,
// alias-free, default-filled form of a user-authored query description.
//
// A Sketch is produced by the normalizer and consumed once by the binder
// (or directly by a caller). It carries no source paths; diagnostics for
// a sketch are reported against the raw tree it was normalized from.
package sketch

import "encoding/json"

// Wildcard is the sentinel get entry meaning "all fields".
const Wildcard = "*"

// Sketch is the canonical query sketch.
type Sketch struct {
	From  string
	Get   []string
	With  []string
	Take  int
	Where WhereExpr
}

// WantsAllFields reports whether the sketch selects every field, either
// via the wildcard sentinel or an empty get list.
func (s Sketch) WantsAllFields() bool {
	if len(s.Get) == 0 {
		return true
	}
	return len(s.Get) == 1 && s.Get[0] == Wildcard
}

// MarshalJSON renders the canonical wire shape
// {from, get, with, take, where}.
func (s Sketch) MarshalJSON() ([]byte, error) {
	where := s.Where
	if where == nil {
		where = All{}
	}
	return json.Marshal(struct {
		From  string    `json:"from"`
		Get   []string  `json:"get"`
		With  []string  `json:"with"`
		Take  int       `json:"take"`
		Where WhereExpr `json:"where"`
	}{
		From:  s.From,
		Get:   stringList(s.Get),
		With:  stringList(s.With),
		Take:  s.Take,
		Where: where,
	})
}

func stringList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
