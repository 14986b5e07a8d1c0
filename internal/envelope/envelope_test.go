package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchgraph/sketch/internal/catalog"
	"github.com/fetchgraph/sketch/internal/config"
	"github.com/fetchgraph/sketch/internal/relquery"
	"github.com/fetchgraph/sketch/internal/sketch"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Entity{
		{Name: "fbs", Fields: []catalog.Field{{Name: "id"}, {Name: "name"}, {Name: "status"}}},
	})
	require.NoError(t, err)
	return cat
}

func TestIsSketch(t *testing.T) {
	assert.True(t, IsSketch(map[string]any{"$dsl": DialectID, "$sketch": "from: fbs"}))
	assert.True(t, IsSketch(map[string]any{"$dsl": "other@v1"}))
	assert.False(t, IsSketch(map[string]any{"field": "x"}))
	assert.False(t, IsSketch("from: fbs"))
	assert.False(t, IsSketch(nil))
}

func TestUnwrap(t *testing.T) {
	payload, err := Unwrap(map[string]any{"$dsl": DialectID, "$sketch": "from: fbs"})
	require.NoError(t, err)
	assert.Equal(t, "from: fbs", payload)

	payload, err = Unwrap(map[string]any{"$dsl": DialectID, "payload": map[string]any{"from": "fbs"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"from": "fbs"}, payload)

	// Inline body form: markers stripped, remainder is the sketch.
	payload, err = Unwrap(map[string]any{"$dsl": DialectID, "from": "fbs", "take": 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"from": "fbs", "take": 5}, payload)
}

func TestUnwrap_Errors(t *testing.T) {
	_, err := Unwrap("not a map")
	require.Error(t, err)

	_, err = Unwrap(map[string]any{"$sketch": "from: fbs"})
	require.Error(t, err, "missing dialect marker")

	_, err = Unwrap(map[string]any{"$dsl": "someone-else@v9", "$sketch": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "someone-else@v9")

	_, err = Unwrap(map[string]any{"$dsl": DialectID})
	require.Error(t, err, "no payload")
}

func TestCompile(t *testing.T) {
	q, err := Compile(map[string]any{
		"$dsl":    DialectID,
		"$sketch": `{from: fbs, where: [[status, active]], take: 10}`,
	}, testCatalog(t), config.Default())
	require.NoError(t, err)

	assert.Equal(t, "fbs", q.RootEntity)
	assert.Equal(t, 10, q.Limit)
	cmp, ok := q.Filters.(relquery.Comparison)
	require.True(t, ok)
	assert.Equal(t, sketch.OpEq, cmp.Op)
}

func TestCompile_RejectsErrorDiagnostics(t *testing.T) {
	_, err := Compile(map[string]any{
		"$dsl":    DialectID,
		"$sketch": `{where: []}`, // missing from
	}, testCatalog(t), config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSL_MISSING_REQUIRED_KEY")
}

func TestCompileSelectors(t *testing.T) {
	native := map[string]any{"field": "status", "op": "eq", "value": "active"}
	out, err := CompileSelectors([]any{
		native,
		map[string]any{"$dsl": DialectID, "$sketch": `{from: fbs, where: []}`},
	}, testCatalog(t), config.Default())
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, native, out[0], "native selector untouched")
	q, ok := out[1].(relquery.Query)
	require.True(t, ok)
	assert.Equal(t, "fbs", q.RootEntity)
}

func TestCompileSelectors_FailurePosition(t *testing.T) {
	_, err := CompileSelectors([]any{
		map[string]any{"$dsl": DialectID, "$sketch": `{from: ghost, where: []}`},
	}, testCatalog(t), config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selector 0")
}
