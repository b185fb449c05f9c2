package hookup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/hookup"
)

func writeRustModule(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestRustModuleAddsModDeclaration(t *testing.T) {
	path := writeRustModule(t, "fn main() {}\n")

	result := hookup.Apply(hookup.Spec{
		Path: path,
		Kind: hookup.KindRustModule,
		Config: map[string]interface{}{
			"editKind":   "mod",
			"identifier": "FOUNDFRAME",
			"modName":    "foundframe",
		},
	}, hookup.Context{})

	require.Equal(t, hookup.StatusApplied, result.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "mod foundframe;")
}

func TestRustModuleUseStatementDedupesByNormalizedWhitespace(t *testing.T) {
	path := writeRustModule(t, "use   std::sync::Mutex  ;\n")

	result := hookup.Apply(hookup.Spec{
		Path: path,
		Kind: hookup.KindRustModule,
		Config: map[string]interface{}{
			"editKind":   "use",
			"identifier": "MUTEX",
			"useLine":    "use std::sync::Mutex;",
		},
	}, hookup.Context{})

	assert.Equal(t, hookup.StatusSkipped, result.Status)
}

func TestTauriPluginInitIsNoOpOnceFunctionExists(t *testing.T) {
	path := writeRustModule(t, `fn device_plugin() -> tauri::plugin::TauriPlugin<tauri::Wry> {
    tauri::plugin::Builder::new("device_plugin").build()
}
`)

	result := hookup.Apply(hookup.Spec{
		Path: path,
		Kind: hookup.KindRustModule,
		Config: map[string]interface{}{
			"editKind":   "tauri-plugin",
			"identifier": "DEVICE_PLUGIN",
			"fnName":     "device_plugin",
			"commands":   []string{"list_devices"},
		},
	}, hookup.Context{})

	assert.Equal(t, hookup.StatusSkipped, result.Status)
}

func TestTauriPluginInitGeneratesBuilder(t *testing.T) {
	path := writeRustModule(t, "fn main() {}\n")

	result := hookup.Apply(hookup.Spec{
		Path: path,
		Kind: hookup.KindRustModule,
		Config: map[string]interface{}{
			"editKind":   "tauri-plugin",
			"identifier": "DEVICE_PLUGIN",
			"fnName":     "device_plugin",
			"commands":   []string{"list_devices", "add_device"},
		},
	}, hookup.Context{})

	require.Equal(t, hookup.StatusApplied, result.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "fn device_plugin()")
	assert.Contains(t, string(content), "list_devices, add_device")
}
