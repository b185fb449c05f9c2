package hookup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/hookup"
)

func writeCargoToml(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestCargoTomlInsertsBareVersion(t *testing.T) {
	path := writeCargoToml(t, "[package]\nname = \"demo\"\n\n[dependencies]\n")

	result := hookup.Apply(hookup.Spec{
		Path: path,
		Kind: hookup.KindCargoToml,
		Config: map[string]interface{}{
			"section": "dependencies",
			"name":    "serde",
			"version": "1.0",
		},
	}, hookup.Context{})

	require.Equal(t, hookup.StatusApplied, result.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `serde = "1.0"`)
}

func TestCargoTomlInsertsInlineTable(t *testing.T) {
	path := writeCargoToml(t, "[dependencies]\n")

	result := hookup.Apply(hookup.Spec{
		Path: path,
		Kind: hookup.KindCargoToml,
		Config: map[string]interface{}{
			"section":  "dependencies",
			"name":     "tokio",
			"version":  "1.0",
			"features": []string{"rt", "macros"},
		},
	}, hookup.Context{})

	require.Equal(t, hookup.StatusApplied, result.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `tokio = { version = "1.0", features = ["rt", "macros"] }`)
}

func TestCargoTomlSkipsAlreadyPresentKey(t *testing.T) {
	path := writeCargoToml(t, "[dependencies]\nserde = \"1.0\"\n")

	result := hookup.Apply(hookup.Spec{
		Path: path,
		Kind: hookup.KindCargoToml,
		Config: map[string]interface{}{
			"section": "dependencies",
			"name":    "serde",
			"version": "1.0",
		},
	}, hookup.Context{})

	assert.Equal(t, hookup.StatusSkipped, result.Status)
}

func TestCargoTomlRerunIsNoOp(t *testing.T) {
	path := writeCargoToml(t, "[dependencies]\n")

	spec := hookup.Spec{
		Path: path,
		Kind: hookup.KindCargoToml,
		Config: map[string]interface{}{
			"section": "dependencies",
			"name":    "anyhow",
			"version": "1.0",
		},
	}

	first := hookup.Apply(spec, hookup.Context{})
	require.Equal(t, hookup.StatusApplied, first.Status)

	afterFirst, err := os.ReadFile(path)
	require.NoError(t, err)

	second := hookup.Apply(spec, hookup.Context{})
	assert.Equal(t, hookup.StatusSkipped, second.Status)

	afterSecond, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, afterFirst, afterSecond)
}
