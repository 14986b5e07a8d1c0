package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	spec := Default()

	assert.Equal(t, []string{"*"}, spec.Defaults.Get)
	assert.Equal(t, 200, spec.Defaults.Take)
	assert.Equal(t, TieBreakLexical, spec.Policy.TieBreak)
	assert.Equal(t, DuplicateKeysWarn, spec.Policy.DuplicateKeys)
	assert.InDelta(t, 0.8, spec.Operators.AutocorrectCutoff, 1e-9)
}

func TestKeyAliases(t *testing.T) {
	aliases := Default().KeyAliases()

	assert.Equal(t, "from", aliases["from"])
	assert.Equal(t, "from", aliases["root"])
	assert.Equal(t, "from", aliases["root_entity"])
	assert.Equal(t, "take", aliases["limit"])
	assert.Equal(t, "get", aliases["select"])
	assert.Equal(t, "with", aliases["include"])
	assert.Equal(t, "where", aliases["filter"])

	_, ok := aliases["unknown"]
	assert.False(t, ok)
}

func TestLoad_YAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defaults:
  take: 50
policy:
  duplicate_keys: error
`), 0o644))

	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, spec.Defaults.Take)
	assert.Equal(t, DuplicateKeysError, spec.Policy.DuplicateKeys)
	// Untouched fields keep their defaults.
	assert.Equal(t, TieBreakLexical, spec.Policy.TieBreak)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SKETCH_DEFAULT_TAKE", "25")
	t.Setenv("SKETCH_TIE_BREAK", TieBreakDeclared)

	spec, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, spec.Defaults.Take)
	assert.Equal(t, TieBreakDeclared, spec.Policy.TieBreak)
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Setenv("SKETCH_TIE_BREAK", "random")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tie_break")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_BadAlias(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
operators:
  aliases:
    zap: frobnicate
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}
