// Package diag accumulates structured warnings and errors produced while
// parsing and normalizing query sketches.
//
// The parse and normalize stages never abort on bad input; they record
// diagnostics and keep going. Callers check HasErrors before trusting a
// sketch for downstream compilation.
package diag

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic codes. The vocabulary is fixed so tooling can match on codes
// rather than message text.
const (
	CodeParseError        = "DSL_PARSE_ERROR"
	CodeDuplicateKey      = "DSL_DUPLICATE_KEY"
	CodeUnknownKey        = "DSL_UNKNOWN_KEY"
	CodeMissingRequired   = "DSL_MISSING_REQUIRED_KEY"
	CodeInvalidTake       = "DSL_INVALID_TAKE"
	CodeUnknownOp         = "DSL_UNKNOWN_OP"
	CodeOpAutocorrect     = "DSL_OP_AUTOCORRECT"
	CodeBadClauseArity    = "DSL_BAD_CLAUSE_ARITY"
	CodeBadClausePath     = "DSL_BAD_CLAUSE_PATH"
	CodeBadClauseValue    = "DSL_BAD_CLAUSE_VALUE"
	CodeBadWhereGroupType = "DSL_BAD_WHERE_GROUP_TYPE"
	CodeEmptyWhereObject  = "DSL_EMPTY_WHERE_OBJECT"
)

// Diagnostic is a single warning or error with source-path attribution.
// Path uses the "$" root convention, e.g. "$.where.all[0]".
type Diagnostic struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
}

// Diagnostics is an ordered accumulator of diagnostics.
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (d *Diagnostics) Add(code, message, path string, severity Severity) {
	*d = append(*d, Diagnostic{Code: code, Message: message, Path: path, Severity: severity})
}

// Addf appends a diagnostic with a formatted message.
func (d *Diagnostics) Addf(code string, severity Severity, path, format string, args ...any) {
	d.Add(code, fmt.Sprintf(format, args...), path, severity)
}

// Extend appends all diagnostics from other, preserving order.
func (d *Diagnostics) Extend(other Diagnostics) {
	*d = append(*d, other...)
}

// HasErrors reports whether any accumulated diagnostic is error-severity.
func (d Diagnostics) HasErrors() bool {
	for _, m := range d {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error-severity diagnostics in order.
func (d Diagnostics) Errors() Diagnostics {
	return d.filter(SeverityError)
}

// Warnings returns the warning-severity diagnostics in order.
func (d Diagnostics) Warnings() Diagnostics {
	return d.filter(SeverityWarning)
}

func (d Diagnostics) filter(severity Severity) Diagnostics {
	var out Diagnostics
	for _, m := range d {
		if m.Severity == severity {
			out = append(out, m)
		}
	}
	return out
}

// Summary renders diagnostics as a single "CODE: message (path=...)" line,
// suitable for embedding in an error returned to a caller.
func (d Diagnostics) Summary() string {
	parts := make([]string, 0, len(d))
	for _, m := range d {
		s := fmt.Sprintf("%s: %s", m.Code, m.Message)
		if m.Path != "" {
			s += fmt.Sprintf(" (path=%s)", m.Path)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
