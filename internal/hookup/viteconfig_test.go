package hookup_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/hookup"
)

func writeViteConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "vite.config.ts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

const viteConfigBase = `import { defineConfig } from 'vite';

export default defineConfig({
  plugins: [],
});
`

func TestViteConfigAddsBuildInput(t *testing.T) {
	path := writeViteConfig(t, viteConfigBase)

	spec := hookup.Spec{
		Path: path,
		Kind: hookup.KindViteConfig,
		Config: map[string]interface{}{
			"entryKind":  "build-input",
			"identifier": "DEVICE_ENTRY",
			"inputName":  "device",
			"inputValue": "src/device/main.ts",
		},
	}

	result := hookup.Apply(spec, hookup.Context{})
	require.Equal(t, hookup.StatusApplied, result.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "build.rollupOptions.input.device")
	assert.Contains(t, string(content), "src/device/main.ts")
}

func TestViteConfigDefineEntryRerunIsNoOp(t *testing.T) {
	path := writeViteConfig(t, viteConfigBase)

	spec := hookup.Spec{
		Path: path,
		Kind: hookup.KindViteConfig,
		Config: map[string]interface{}{
			"entryKind":   "define",
			"identifier":  "APP_VERSION",
			"defineKey":   "__APP_VERSION__",
			"defineValue": `"1.0.0"`,
		},
	}

	first := hookup.Apply(spec, hookup.Context{})
	require.Equal(t, hookup.StatusApplied, first.Status)

	second := hookup.Apply(spec, hookup.Context{})
	assert.Equal(t, hookup.StatusSkipped, second.Status)
}

func TestViteConfigPluginEntryAnchorsAfterExportDefault(t *testing.T) {
	path := writeViteConfig(t, viteConfigBase)

	spec := hookup.Spec{
		Path: path,
		Kind: hookup.KindViteConfig,
		Config: map[string]interface{}{
			"entryKind":  "plugin",
			"identifier": "DEVICE_PLUGIN",
			"pluginExpr": "devicePlugin()",
		},
	}

	result := hookup.Apply(spec, hookup.Context{})
	require.Equal(t, hookup.StatusApplied, result.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")

	exportIdx := -1
	pluginIdx := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "export default") {
			exportIdx = i
		}
		if strings.Contains(line, "plugins += devicePlugin()") {
			pluginIdx = i
		}
	}
	require.NotEqual(t, -1, exportIdx)
	require.NotEqual(t, -1, pluginIdx)
	assert.Greater(t, pluginIdx, exportIdx)
}

func TestViteConfigServerEntry(t *testing.T) {
	path := writeViteConfig(t, viteConfigBase)

	spec := hookup.Spec{
		Path: path,
		Kind: hookup.KindViteConfig,
		Config: map[string]interface{}{
			"entryKind":   "server",
			"identifier":  "DEV_PORT",
			"serverField": "port",
			"serverValue": "5173",
		},
	}

	result := hookup.Apply(spec, hookup.Context{})
	require.Equal(t, hookup.StatusApplied, result.Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "server.port = 5173")
}
