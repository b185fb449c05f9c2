package template_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/template"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSourceResolvePrefersWorkspaceOverride(t *testing.T) {
	builtin := t.TempDir()
	workspace := t.TempDir()

	writeFile(t, filepath.Join(builtin, "rust", "core.ejs"), "builtin")
	writeFile(t, filepath.Join(workspace, "rust", "core.ejs"), "override")

	src := template.Source{BuiltinRoot: builtin, WorkspaceRoot: workspace}

	content, err := src.Load("rust/core.ejs")
	require.NoError(t, err)
	assert.Equal(t, "override", content)
}

func TestSourceResolveFallsBackToBuiltin(t *testing.T) {
	builtin := t.TempDir()
	workspace := t.TempDir()

	writeFile(t, filepath.Join(builtin, "rust", "core.ejs"), "builtin")

	src := template.Source{BuiltinRoot: builtin, WorkspaceRoot: workspace}

	content, err := src.Load("rust/core.ejs")
	require.NoError(t, err)
	assert.Equal(t, "builtin", content)
}

func TestSourceResolveMissingReturnsError(t *testing.T) {
	src := template.Source{BuiltinRoot: t.TempDir()}

	_, err := src.Load("rust/missing.ejs")
	assert.Error(t, err)
}

func TestSourcePrefersBuiltinFSOverBuiltinRoot(t *testing.T) {
	builtin := t.TempDir()
	writeFile(t, filepath.Join(builtin, "rust", "core.ejs"), "on-disk")

	src := template.Source{BuiltinRoot: builtin, BuiltinFS: fstest.MapFS{
		"rust/core.ejs": &fstest.MapFile{Data: []byte("embedded")},
	}}

	content, err := src.Load("rust/core.ejs")
	require.NoError(t, err)
	assert.Equal(t, "embedded", content)
}

func TestSourceWorkspaceOverridesBuiltinFS(t *testing.T) {
	workspace := t.TempDir()
	writeFile(t, filepath.Join(workspace, "rust", "core.ejs"), "override")

	src := template.Source{WorkspaceRoot: workspace, BuiltinFS: fstest.MapFS{
		"rust/core.ejs": &fstest.MapFile{Data: []byte("embedded")},
	}}

	content, err := src.Load("rust/core.ejs")
	require.NoError(t, err)
	assert.Equal(t, "override", content)
}
