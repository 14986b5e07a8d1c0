package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchgraph/sketch/internal/diag"
	"github.com/fetchgraph/sketch/internal/rawval"
)

func mustObject(t *testing.T, n rawval.Node) rawval.Object {
	t.Helper()
	obj, ok := n.Value.(rawval.Object)
	require.True(t, ok, "expected object, got %s", n.TypeName())
	return obj
}

func TestParse_StrictJSON(t *testing.T) {
	node, diags := Parse(`{"from": "fbs", "take": 10, "ok": true, "x": null, "r": 1.5}`)
	require.False(t, diags.HasErrors())

	obj := mustObject(t, node)
	from, _ := obj.Get("from")
	assert.Equal(t, rawval.String("fbs"), from.Value)
	take, _ := obj.Get("take")
	assert.Equal(t, rawval.Int(10), take.Value)
	ok, _ := obj.Get("ok")
	assert.Equal(t, rawval.Bool(true), ok.Value)
	x, _ := obj.Get("x")
	assert.Equal(t, rawval.Null{}, x.Value)
	r, _ := obj.Get("r")
	assert.Equal(t, rawval.Float(1.5), r.Value)
}

func TestParse_TolerantDialect(t *testing.T) {
	// Bare keys, single quotes, bare word values, trailing commas.
	node, diags := Parse(`{from: fbs, name: 'crm', where: [[status, active],], }`)
	require.False(t, diags.HasErrors(), "diags: %s", diags.Summary())

	obj := mustObject(t, node)
	from, _ := obj.Get("from")
	assert.Equal(t, rawval.String("fbs"), from.Value)
	name, _ := obj.Get("name")
	assert.Equal(t, rawval.String("crm"), name.Value)

	where, _ := obj.Get("where")
	arr, ok := where.Value.(rawval.Array)
	require.True(t, ok)
	require.Len(t, arr, 1)
	clause, ok := arr[0].Value.(rawval.Array)
	require.True(t, ok)
	require.Len(t, clause, 2)
	assert.Equal(t, rawval.String("status"), clause[0].Value)
	assert.Equal(t, "$.where[0][1]", clause[1].Path)
}

func TestParse_ImplicitBraces(t *testing.T) {
	node, diags := Parse(`from: fbs, take: 10`)
	require.False(t, diags.HasErrors())

	obj := mustObject(t, node)
	assert.Len(t, obj, 2)
	take, _ := obj.Get("take")
	assert.Equal(t, rawval.Int(10), take.Value)
}

func TestParse_SymbolOperators(t *testing.T) {
	node, diags := Parse(`{where: [[age, >=, 21], [name, ~, smith]]}`)
	require.False(t, diags.HasErrors())

	obj := mustObject(t, node)
	where, _ := obj.Get("where")
	arr := where.Value.(rawval.Array)
	first := arr[0].Value.(rawval.Array)
	assert.Equal(t, rawval.String(">="), first[1].Value)
	second := arr[1].Value.(rawval.Array)
	assert.Equal(t, rawval.String("~"), second[1].Value)
}

func TestParse_UnicodeBareValue(t *testing.T) {
	node, diags := Parse(`{where: [[system_name, contains, ЕСП]]}`)
	require.False(t, diags.HasErrors())

	obj := mustObject(t, node)
	where, _ := obj.Get("where")
	clause := where.Value.(rawval.Array)[0].Value.(rawval.Array)
	assert.Equal(t, rawval.String("ЕСП"), clause[2].Value)
}

func TestParse_DuplicateKeys(t *testing.T) {
	node, diags := Parse(`{take: 1, take: 2}`)

	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeDuplicateKey, diags[0].Code)
	assert.Equal(t, diag.SeverityWarning, diags[0].Severity)
	assert.Equal(t, "$.take", diags[0].Path)
	assert.False(t, diags.HasErrors())

	obj := mustObject(t, node)
	require.Len(t, obj, 1)
	take, _ := obj.Get("take")
	assert.Equal(t, rawval.Int(2), take.Value, "last write wins")
}

func TestParse_DuplicateKeysErrorPolicy(t *testing.T) {
	_, diags := ParseWithOptions(`{take: 1, take: 2}`, Options{DuplicateKeysError: true})
	require.Len(t, diags, 1)
	assert.True(t, diags.HasErrors())
}

func TestParse_UnterminatedObject(t *testing.T) {
	node, diags := Parse(`{from: fbs, where: [[a, b]]`)

	require.True(t, diags.HasErrors())
	assert.Equal(t, diag.CodeParseError, diags.Errors()[0].Code)

	// Portion preceding the error is preserved.
	obj := mustObject(t, node)
	from, ok := obj.Get("from")
	require.True(t, ok)
	assert.Equal(t, rawval.String("fbs"), from.Value)
	_, ok = obj.Get("where")
	assert.True(t, ok)
}

func TestParse_UnterminatedString(t *testing.T) {
	node, diags := Parse(`{from: "fbs`)

	require.True(t, diags.HasErrors())
	assert.Equal(t, "$.from", diags.Errors()[0].Path)

	obj := mustObject(t, node)
	from, ok := obj.Get("from")
	require.True(t, ok)
	assert.Equal(t, rawval.String("fbs"), from.Value)
}

func TestParse_UnbalancedBracket(t *testing.T) {
	node, diags := Parse(`{where: [[a, eq, 1]}`)

	require.True(t, diags.HasErrors())
	obj := mustObject(t, node)
	_, ok := obj.Get("where")
	assert.True(t, ok, "partial tree keeps the truncated member")
}

func TestParse_EmptyInput(t *testing.T) {
	node, diags := Parse("   ")
	require.True(t, diags.HasErrors())
	assert.Equal(t, rawval.Object{}, node.Value)
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"", "{", "}", "[", "]", ":", ",", "{:}", "{,}", "[,]",
		"{a}", "{a:}", "{a:1,,}", `{"a`, "'", "{{{{", "]]]]",
		"\\", "{a: \x00}", "{a: 1} trailing",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			Parse(in)
		}, "input %q", in)
	}
}

func TestParse_EscapeSequences(t *testing.T) {
	node, diags := Parse(`{a: "line\nbreak", b: 'qu\'ote', c: "Ж"}`)
	require.False(t, diags.HasErrors())

	obj := mustObject(t, node)
	a, _ := obj.Get("a")
	assert.Equal(t, rawval.String("line\nbreak"), a.Value)
	b, _ := obj.Get("b")
	assert.Equal(t, rawval.String("qu'ote"), b.Value)
	c, _ := obj.Get("c")
	assert.Equal(t, rawval.String("Ж"), c.Value)
}

func TestFromValue_Lossless(t *testing.T) {
	node, diags := FromValue(map[string]any{
		"from": "fbs",
		"take": 10,
		"where": []any{
			[]any{"status", "eq", "active"},
		},
		"frac": 1.25,
		"big":  float64(42), // decoded JSON numbers stay integral
	})
	require.Empty(t, diags)

	obj := mustObject(t, node)
	take, _ := obj.Get("take")
	assert.Equal(t, rawval.Int(10), take.Value)
	big, _ := obj.Get("big")
	assert.Equal(t, rawval.Int(42), big.Value)
	frac, _ := obj.Get("frac")
	assert.Equal(t, rawval.Float(1.25), frac.Value)

	where, _ := obj.Get("where")
	clause := where.Value.(rawval.Array)[0].Value.(rawval.Array)
	assert.Equal(t, "$.where[0][2]", clause[2].Path)
}

func TestFromValue_SortedKeysDeterministic(t *testing.T) {
	node, _ := FromValue(map[string]any{"b": 1, "a": 2, "c": 3})
	obj := mustObject(t, node)
	require.Len(t, obj, 3)
	assert.Equal(t, "a", obj[0].Key)
	assert.Equal(t, "b", obj[1].Key)
	assert.Equal(t, "c", obj[2].Key)
}

func TestFromValue_Unsupported(t *testing.T) {
	node, diags := FromValue(map[string]any{"ch": make(chan int)})
	require.True(t, diags.HasErrors())
	obj := mustObject(t, node)
	ch, _ := obj.Get("ch")
	assert.Equal(t, rawval.Null{}, ch.Value)
}

func TestParseInput_Dispatch(t *testing.T) {
	fromText, _ := ParseInput(`{from: fbs}`, Options{})
	fromMap, _ := ParseInput(map[string]any{"from": "fbs"}, Options{})

	assert.Equal(t, fromText.Interface(), fromMap.Interface())
}
