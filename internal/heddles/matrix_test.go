package heddles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/heddles"
	"github.com/hupe1980/spire-loom/internal/warp"
)

func TestTreadleMatrixMatchEdges(t *testing.T) {
	core := warp.NewCoreRing("Foundframe", warp.LangRust)
	out := warp.NewSpiralOut(core, "plugin")

	edges := []*warp.SpiralEdge{
		{From: out, To: core, Relationship: warp.RelWraps, ExportName: "android"},
	}

	matrix := heddles.NewTreadleMatrix(map[string]string{
		"SpiralOut->Foundframe": "androidPlugin",
	})

	tasks := matrix.MatchEdges(edges)
	require.Len(t, tasks, 1)
	assert.Equal(t, "androidPlugin", tasks[0].Generator)
	assert.Equal(t, "SpiralOut", tasks[0].OuterType)
	assert.Equal(t, "Foundframe", tasks[0].InnerType)
	assert.False(t, tasks[0].IsTieup())
}

func TestTreadleMatrixLookupFallsBackToAnyTypeWildcard(t *testing.T) {
	matrix := heddles.NewTreadleMatrix(map[string]string{
		"SpiralOut->*": "direct",
	})

	name, ok := matrix.Lookup("SpiralOut", "Foundframe")
	require.True(t, ok)
	assert.Equal(t, "direct", name)

	name, ok = matrix.Lookup("SpiralOut", "Bookmarks")
	require.True(t, ok)
	assert.Equal(t, "direct", name)
}

func TestTreadleMatrixLookupExactEntryWinsOverWildcard(t *testing.T) {
	matrix := heddles.NewTreadleMatrix(map[string]string{
		"SpiralOut->*":          "direct",
		"SpiralOut->Foundframe": "foundframeSpecial",
	})

	name, ok := matrix.Lookup("SpiralOut", "Foundframe")
	require.True(t, ok)
	assert.Equal(t, "foundframeSpecial", name)
}

func TestTreadleMatrixMatchEdgesSkipsMisses(t *testing.T) {
	core := warp.NewCoreRing("Foundframe", warp.LangRust)
	out := warp.NewSpiralOut(core, "plugin")

	edges := []*warp.SpiralEdge{
		{From: out, To: core, Relationship: warp.RelWraps},
	}

	matrix := heddles.NewTreadleMatrix(nil)

	tasks := matrix.MatchEdges(edges)
	assert.Empty(t, tasks)
}

func TestCollectTieupsEmitsOneTaskPerTreadleEntry(t *testing.T) {
	core := warp.NewCoreRing("Foundframe", warp.LangRust)
	src := warp.NewCoreRing("Bookmarks", warp.LangRust)
	out := warp.NewSpiralOut(core, "plugin")

	out.Tieup(src, warp.TieupConfig{Treadles: []warp.TreadleEntry{
		{Treadle: "bookmarksSync", WarpData: map[string]interface{}{"table": "bookmarks"}},
		{Treadle: "bookmarksIndex"},
	}})

	tasks := heddles.CollectTieups([]*warp.Tieup{out.Tieups[0]})
	require.Len(t, tasks, 2)

	assert.Equal(t, "bookmarksSync", tasks[0].Generator)
	assert.Equal(t, map[string]interface{}{"table": "bookmarks"}, tasks[0].Config)
	assert.True(t, tasks[0].IsTieup())

	assert.Equal(t, "bookmarksIndex", tasks[1].Generator)
	assert.Same(t, src, tasks[1].Previous)
	assert.Same(t, out, tasks[1].Current)
}
