package loom

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newDeviceWorkspace(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	loomDir := filepath.Join(root, "loom")

	writeFile(t, filepath.Join(loomDir, "WARP.ts"), `
const foundframe = coreRing("Foundframe", "rust");
export const core = spiralOut(foundframe, "direct");
`)

	writeFile(t, filepath.Join(loomDir, "device.ts"), `
@rust.Struct
class Foundframe {
  @rust.Mutex
  device: DeviceManager;
}

@link("Foundframe", "device")
@reach("Private")
class DeviceMgmt {
  @crud.list()
  listDevices(): Device[] { return []; }
}
`)

	writeFile(t, filepath.Join(root, "crates/foundframe/src/lib.rs"), "// crate root\n")

	return root
}

func TestWeaveEndToEndGeneratesFile(t *testing.T) {
	workspace := newDeviceWorkspace(t)

	result, err := Weave(context.Background(), workspace, withoutMarkerScan())
	require.NoError(t, err)
	require.Empty(t, result.Report.Errors)

	assert.Equal(t, 1, result.Report.FilesGenerated)
	assert.Len(t, result.Plan.Tasks(), 1)

	written, err := os.ReadFile(filepath.Join(workspace, "crates/foundframe/src/Foundframe_impl.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(written), "device_list")
}

func TestWeaveMissingWarpRootReturnsError(t *testing.T) {
	workspace := t.TempDir()

	_, err := Weave(context.Background(), workspace)
	assert.Error(t, err)
}

func TestWeaveRerunIsIdempotent(t *testing.T) {
	workspace := newDeviceWorkspace(t)

	_, err := Weave(context.Background(), workspace, withoutMarkerScan())
	require.NoError(t, err)

	result2, err := Weave(context.Background(), workspace, withoutMarkerScan())
	require.NoError(t, err)
	require.Empty(t, result2.Report.Errors)
	assert.Equal(t, 0, result2.Report.FilesGenerated)
	assert.Equal(t, 1, result2.Report.FilesUnchanged)
}
