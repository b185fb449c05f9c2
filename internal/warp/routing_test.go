package warp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/warp"
)

func TestCoreRingRouteCrudAttachesRoutingFluently(t *testing.T) {
	readRing := warp.NewCoreRing("ReadReplica", warp.LangRust)
	writeRing := warp.NewCoreRing("WritePrimary", warp.LangRust)

	core := warp.NewCoreRing("Foundframe", warp.LangRust).
		RouteCrud(warp.Routing{Read: readRing, Write: writeRing})

	require.NotNil(t, core.Routing)
	assert.Same(t, readRing, core.Routing.Read)
	assert.Same(t, writeRing, core.Routing.Write)
}

func TestNewCoreRingHasNoRoutingByDefault(t *testing.T) {
	core := warp.NewCoreRing("Foundframe", warp.LangRust)
	assert.Nil(t, core.Routing)
}
