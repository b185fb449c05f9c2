package reed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/warp"
)

func TestParseWarpSimpleSpiralOut(t *testing.T) {
	src := `
const foundframe = coreRing("Foundframe", "rust");
export const android = spiralOut(foundframe, "plugin");
`
	roots, err := ParseWarp([]byte(src))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	assert.Equal(t, "android", roots[0].ExportName)

	out, ok := roots[0].Layer.(*warp.SpiralOut)
	require.True(t, ok)
	assert.Equal(t, "plugin", out.TreadleTag)

	core, ok := out.Inner.(*warp.CoreRing)
	require.True(t, ok)
	assert.Equal(t, "Foundframe", core.StructClassName)
}

func TestParseWarpPlanTypeDisambiguation(t *testing.T) {
	// spec.md section 9 example 3: a SpiralMux whose attached spiraler gives
	// the effective type identity, with inner rings re-exported bare.
	src := `
const core = coreRing("Foundframe", "rust");
const android = spiraler("RustAndroidSpiraler", "foregroundService", core);
const desktop = spiraler("DesktopSpiraler", "direct", core);
export const tauri = spiralMux([android, desktop])
  .attachSpiraler("tauri", spiraler("TauriSpiraler", "app", core));
export { android, desktop };
`
	roots, err := ParseWarp([]byte(src))
	require.NoError(t, err)
	require.Len(t, roots, 3)

	byName := map[string]warp.Layer{}
	for _, r := range roots {
		byName[r.ExportName] = r.Layer
	}

	require.Contains(t, byName, "tauri")
	require.Contains(t, byName, "android")
	require.Contains(t, byName, "desktop")

	mux, ok := byName["tauri"].(*warp.SpiralMux)
	require.True(t, ok)
	assert.Equal(t, "TauriSpiraler", mux.TypeName())
	require.Len(t, mux.InnerRings, 2)

	androidSp, ok := byName["android"].(*warp.Spiraler)
	require.True(t, ok)
	assert.Equal(t, "RustAndroidSpiraler", androidSp.ClassName)
	assert.Same(t, mux.InnerRings[0], byName["android"])
}

func TestParseWarpTieup(t *testing.T) {
	src := `
const core = coreRing("Foundframe", "rust");
const android = spiralOut(core, "plugin");
export const desktop = spiralOut(core, "direct")
  .tieup(android, { treadles: [{ treadle: "syncBridge", warpData: { channel: "events", retries: 3 } }] });
`
	roots, err := ParseWarp([]byte(src))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	out, ok := roots[0].Layer.(*warp.SpiralOut)
	require.True(t, ok)
	require.Len(t, out.Tieups, 1)

	tieup := out.Tieups[0]
	require.Len(t, tieup.Config.Treadles, 1)
	assert.Equal(t, "syncBridge", tieup.Config.Treadles[0].Treadle)
	assert.Equal(t, "events", tieup.Config.Treadles[0].WarpData["channel"])
	assert.Equal(t, float64(3), tieup.Config.Treadles[0].WarpData["retries"])
}

func TestParseWarpIgnoresNonLayerExports(t *testing.T) {
	src := `
export const version = "1.0.0";
export const core = coreRing("Foundframe", "rust");
`
	roots, err := ParseWarp([]byte(src))
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "core", roots[0].ExportName)
}

func TestParseWarpRouteCrud(t *testing.T) {
	src := `
const readRing = coreRing("ReadReplica", "rust");
const writeRing = coreRing("WritePrimary", "rust");
export const core = coreRing("Foundframe", "rust")
  .routeCrud({ read: readRing, write: writeRing, custom: { delete: writeRing } });
`
	roots, err := ParseWarp([]byte(src))
	require.NoError(t, err)
	require.Len(t, roots, 1)

	core, ok := roots[0].Layer.(*warp.CoreRing)
	require.True(t, ok)
	require.NotNil(t, core.Routing)

	readRing, ok := core.Routing.Read.(*warp.CoreRing)
	require.True(t, ok)
	assert.Equal(t, "ReadReplica", readRing.StructClassName)

	writeRing, ok := core.Routing.Write.(*warp.CoreRing)
	require.True(t, ok)
	assert.Equal(t, "WritePrimary", writeRing.StructClassName)

	require.Contains(t, core.Routing.Custom, warp.OpDelete)
	assert.Same(t, core.Routing.Write, core.Routing.Custom[warp.OpDelete])
}

func TestParseWarpRouteCrudRejectsNonCoreRing(t *testing.T) {
	src := `
const core = coreRing("Foundframe", "rust");
export const out = spiralOut(core, "direct").routeCrud({ read: core });
`
	_, err := ParseWarp([]byte(src))
	require.Error(t, err)
}

func TestParseWarpRejectsUndefinedReference(t *testing.T) {
	src := `export const android = spiralOut(missing, "plugin");`

	_, err := ParseWarp([]byte(src))
	require.Error(t, err)

	var cfgErr *warp.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestParseWarpLeavesCycleDetectionToTraversal(t *testing.T) {
	// ParseWarp does no cycle detection; traversal (heddles) skips
	// cycles by object identity. A const binding cannot refer to a later
	// one, so WARP.ts source cannot author a cycle here: this only checks
	// that a spiralOut over a coreRing parses without error.
	src := `
const core = coreRing("Foundframe", "rust");
export const android = spiralOut(core, "plugin");
`
	_, err := ParseWarp([]byte(src))
	require.NoError(t, err)
}
