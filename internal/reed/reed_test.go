package reed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/warp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverEndToEnd(t *testing.T) {
	root := t.TempDir()
	loom := filepath.Join(root, "loom")

	writeFile(t, filepath.Join(loom, "WARP.ts"), `
const foundframe = coreRing("Foundframe", "rust");
export const android = spiralOut(foundframe, "plugin");
`)

	writeFile(t, filepath.Join(loom, "device.ts"), `
@rust.Struct
class Foundframe {
  @rust.Mutex
  device_manager: DeviceManager;
}

@link("Foundframe", "device_manager")
@reach("Local")
class DeviceMgmt {
  @crud.create()
  add(name: string): void {}
}
`)

	writeFile(t, filepath.Join(loom, "bookmarks.schema.ts"), `
export const bookmarks = pgTable('bookmarks', {
  id: text('id').primaryKey(),
});
`)

	result, err := Discover(root, nil)
	require.NoError(t, err)
	require.Empty(t, result.Warnings)

	require.Len(t, result.WarpRoots, 1)
	require.Len(t, result.Managements, 1)
	require.Len(t, result.Tables, 1)

	assert.Equal(t, "DeviceMgmt", result.Managements[0].Name)
	assert.Equal(t, "Foundframe", result.Managements[0].Link.StructClass)

	out, ok := result.WarpRoots[0].Layer.(*warp.SpiralOut)
	require.True(t, ok)

	core, ok := out.Inner.(*warp.CoreRing)
	require.True(t, ok)
	require.Contains(t, core.Fields, "device_manager")
	assert.Equal(t, []string{"Mutex"}, core.Fields["device_manager"].Wrappers)
}

func TestDiscoverCollectsStructFieldsOntoCoreRing(t *testing.T) {
	root := t.TempDir()
	loom := filepath.Join(root, "loom")

	writeFile(t, filepath.Join(loom, "WARP.ts"), `
export const foundframe = coreRing("Foundframe", "rust");
`)

	writeFile(t, filepath.Join(loom, "device.ts"), `
@rust.Struct
class Foundframe {
  @rust.Mutex
  @rust.Option
  device_manager: DeviceManager;
}
`)

	result, err := Discover(root, nil)
	require.NoError(t, err)
	require.Len(t, result.WarpRoots, 1)

	core, ok := result.WarpRoots[0].Layer.(*warp.CoreRing)
	require.True(t, ok)
	require.Contains(t, core.Fields, "device_manager")
	assert.Equal(t, []string{"Mutex", "Option"}, core.Fields["device_manager"].Wrappers)
}

func TestDiscoverMissingWarpIsConfigError(t *testing.T) {
	root := t.TempDir()

	_, err := Discover(root, nil)
	require.Error(t, err)
}
