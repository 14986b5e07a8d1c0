package bind

import (
	"errors"
	"fmt"
)

// Kind classifies a binding failure. The set is closed and part of the
// API contract: callers branch on it to decide retry and messaging.
type Kind string

const (
	KindUnknownEntity   Kind = "UNKNOWN_ENTITY"
	KindUnresolvedField Kind = "UNRESOLVED_FIELD"
	KindInvalidOperator Kind = "INVALID_OPERATOR"
	KindInvalidLimit    Kind = "INVALID_LIMIT"
)

// Error is a binding failure. Unlike normalization, binding fails hard:
// the first unresolvable name or invalid value aborts the compile with
// one of these.
type Error struct {
	Kind    Kind
	Name    string
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Name)
}

func unknownEntity(name string) *Error {
	return &Error{
		Kind:    KindUnknownEntity,
		Name:    name,
		Message: fmt.Sprintf("unknown entity %q", name),
	}
}

func unresolvedField(name, context string) *Error {
	return &Error{
		Kind:    KindUnresolvedField,
		Name:    name,
		Message: fmt.Sprintf("cannot resolve %q: %s", name, context),
	}
}

func invalidOperator(name string) *Error {
	return &Error{
		Kind:    KindInvalidOperator,
		Name:    name,
		Message: fmt.Sprintf("invalid operator %q", name),
	}
}

func invalidLimit(limit int) *Error {
	return &Error{
		Kind:    KindInvalidLimit,
		Name:    fmt.Sprintf("%d", limit),
		Message: fmt.Sprintf("limit must be a positive integer, got %d", limit),
	}
}

// KindOf extracts the binding failure kind from err, or "" when err is
// not a binding error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsUnknownEntity reports whether err is an UNKNOWN_ENTITY failure.
func IsUnknownEntity(err error) bool { return KindOf(err) == KindUnknownEntity }

// IsUnresolvedField reports whether err is an UNRESOLVED_FIELD failure.
func IsUnresolvedField(err error) bool { return KindOf(err) == KindUnresolvedField }

// IsInvalidOperator reports whether err is an INVALID_OPERATOR failure.
func IsInvalidOperator(err error) bool { return KindOf(err) == KindInvalidOperator }

// IsInvalidLimit reports whether err is an INVALID_LIMIT failure.
func IsInvalidLimit(err error) bool { return KindOf(err) == KindInvalidLimit }
