package sketch

// Value is a sealed interface over predicate value shapes: scalars and
// flat arrays of scalars. Objects never appear as predicate values; the
// normalizer rejects them with a diagnostic.
type Value interface {
	valueNode() // sealed to this package
}

// Null represents a null comparison value.
type Null struct{}

func (Null) valueNode() {}

// MarshalJSON renders Null as a JSON null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool represents a boolean comparison value.
type Bool bool

func (Bool) valueNode() {}

// Int represents an integer comparison value.
type Int int64

func (Int) valueNode() {}

// Float represents a non-integral numeric comparison value.
type Float float64

func (Float) valueNode() {}

// String represents a string comparison value.
type String string

func (String) valueNode() {}

// Array represents a sequence value, used with operators such as in,
// not_in, and between.
type Array []Value

func (Array) valueNode() {}

// Unwrap converts a Value to the corresponding plain Go value. Used when
// handing comparison values to consumers that expect native types, such
// as the SQL renderer's parameter list.
func Unwrap(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Array:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Unwrap(item)
		}
		return out
	default:
		return nil
	}
}
