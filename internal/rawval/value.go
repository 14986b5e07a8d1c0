// Package rawval defines the untyped raw parse tree produced by the
// tolerant parser and consumed by the normalizer.
//
// Every node carries a source path ("$", "$.where", "$.where[0][1]") so
// diagnostics emitted at any later stage can point back into the input.
// The tree is created per parse call and discarded after normalization.
package rawval

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface over the finite set of raw value shapes:
// Null, Bool, Int, Float, String, Array, and Object. The marker method
// keeps the set closed so consumers can type-switch exhaustively.
type Value interface {
	rawValue() // sealed to this package
}

// Null represents an explicit null literal.
type Null struct{}

func (Null) rawValue() {}

// Bool represents a boolean literal.
type Bool bool

func (Bool) rawValue() {}

// Int represents an integer literal. Integers are kept apart from floats
// so the normalizer can enforce integer-only fields such as take.
type Int int64

func (Int) rawValue() {}

// Float represents a non-integral numeric literal.
type Float float64

func (Float) rawValue() {}

// String represents a string value, quoted or bare in the source.
type String string

func (String) rawValue() {}

// Array is an ordered sequence of child nodes.
type Array []Node

func (Array) rawValue() {}

// Object is an ordered mapping of string keys to child nodes. Insertion
// order is preserved; duplicate keys are resolved by the parser before an
// Object is built.
type Object []Member

func (Object) rawValue() {}

// Member is one key/value pair of an Object.
type Member struct {
	Key  string
	Node Node
}

// Node is one node of the raw tree: a value plus its source path.
type Node struct {
	Path  string
	Value Value
}

// Get returns the node for key, if present.
func (o Object) Get(key string) (Node, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Node, true
		}
	}
	return Node{}, false
}

// Index returns the position of key in the object, or -1.
func (o Object) Index(key string) int {
	for i, m := range o {
		if m.Key == key {
			return i
		}
	}
	return -1
}

// TypeName returns a human-readable name for the node's value shape,
// used in diagnostic messages.
func (n Node) TypeName() string {
	switch n.Value.(type) {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Int, Float:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("%T", n.Value)
	}
}

// Interface converts the subtree to plain Go values (nil, bool, int64,
// float64, string, []any, map ordering flattened to map[string]any).
// Used for JSON round-trips in tooling and tests.
func (n Node) Interface() any {
	switch v := n.Value.(type) {
	case Null:
		return nil
	case Bool:
		return bool(v)
	case Int:
		return int64(v)
	case Float:
		return float64(v)
	case String:
		return string(v)
	case Array:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = child.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v))
		for _, m := range v {
			out[m.Key] = m.Node.Interface()
		}
		return out
	default:
		return nil
	}
}

// ChildPath builds the source path for an object member.
func ChildPath(parent, key string) string {
	if parent == "$" {
		return "$." + key
	}
	return parent + "." + key
}

// ElemPath builds the source path for an array element.
func ElemPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
