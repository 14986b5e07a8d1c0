package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnostics_Add(t *testing.T) {
	var d Diagnostics
	d.Add(CodeUnknownKey, "Unknown key 'foo'", "$.foo", SeverityWarning)
	d.Addf(CodeUnknownOp, SeverityError, "$.where.all[0][1]", "Unknown operator %q", "frobs")

	assert.Len(t, d, 2)
	assert.Equal(t, CodeUnknownKey, d[0].Code)
	assert.Equal(t, `Unknown operator "frobs"`, d[1].Message)
}

func TestDiagnostics_HasErrors(t *testing.T) {
	var d Diagnostics
	assert.False(t, d.HasErrors())

	d.Add(CodeUnknownKey, "warn", "$.x", SeverityWarning)
	assert.False(t, d.HasErrors())

	d.Add(CodeParseError, "boom", "$", SeverityError)
	assert.True(t, d.HasErrors())
}

func TestDiagnostics_Filters(t *testing.T) {
	var d Diagnostics
	d.Add(CodeUnknownKey, "warn one", "$.a", SeverityWarning)
	d.Add(CodeParseError, "err", "$", SeverityError)
	d.Add(CodeDuplicateKey, "warn two", "$.b", SeverityWarning)

	assert.Len(t, d.Warnings(), 2)
	assert.Len(t, d.Errors(), 1)
	assert.Equal(t, "warn one", d.Warnings()[0].Message)
}

func TestDiagnostics_Extend(t *testing.T) {
	var a, b Diagnostics
	a.Add(CodeUnknownKey, "first", "$.a", SeverityWarning)
	b.Add(CodeInvalidTake, "second", "$.take", SeverityError)

	a.Extend(b)
	assert.Len(t, a, 2)
	assert.Equal(t, CodeInvalidTake, a[1].Code)
}

func TestDiagnostics_Summary(t *testing.T) {
	var d Diagnostics
	d.Add(CodeMissingRequired, "Missing required key 'from'", "$.from", SeverityError)
	d.Add(CodeUnknownOp, "Unknown operator 'zap'", "", SeverityError)

	assert.Equal(t,
		"DSL_MISSING_REQUIRED_KEY: Missing required key 'from' (path=$.from); DSL_UNKNOWN_OP: Unknown operator 'zap'",
		d.Summary())
}
