package decorator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/warp"
)

func TestMethodDecoratorsQueueBeforeClassFlush(t *testing.T) {
	k := New()

	// Method decorators run before the class decorator in source order.
	k.QueueCrud("add", warp.OpCreate, CrudOptions{Tags: []string{"crud:create"}})
	k.QueueCrud("remove", warp.OpDelete, CrudOptions{IsSoftDelete: true})

	mgmt := k.FlushForReach("BookmarkMgmt", warp.ReachLocal, "bookmark.ts")

	require.Len(t, mgmt.Methods, 2)
	assert.Equal(t, "add", mgmt.Methods[0].Name)
	assert.Equal(t, warp.OpCreate, mgmt.Methods[0].Operation)
	assert.Equal(t, "remove", mgmt.Methods[1].Name)
	assert.True(t, mgmt.Methods[1].IsSoftDelete)
	assert.Equal(t, warp.ReachLocal, mgmt.Reach)
}

func TestFlushClearsPendingQueueForNextClass(t *testing.T) {
	k := New()

	k.QueueCrud("add", warp.OpCreate, CrudOptions{})
	first := k.FlushForReach("FirstMgmt", warp.ReachPrivate, "a.ts")
	require.Len(t, first.Methods, 1)

	// A second class with no new decorators must not inherit the
	// first's pending queue.
	second := k.FlushForReach("SecondMgmt", warp.ReachPrivate, "a.ts")
	assert.Empty(t, second.Methods)
}

func TestLinkAttachesToNextFlush(t *testing.T) {
	k := New()
	k.QueueLink("Foundframe", "device_manager")

	mgmt := k.FlushForReach("DeviceMgmt", warp.ReachGlobal, "device.ts")

	require.NotNil(t, mgmt.Link)
	assert.Equal(t, "Foundframe", mgmt.Link.StructClass)
	assert.Equal(t, "device_manager", mgmt.Link.FieldName)
}

func TestWrapperStackingOuterToInner(t *testing.T) {
	k := New()

	// @Mutex @Option field -- Mutex applied (queued) first, textually
	// outer, per the resolved wrapper-ordering Open Question.
	k.QueueWrapper("device_manager", "Mutex")
	k.QueueWrapper("device_manager", "Option")

	fields := k.FlushForRustStruct("Foundframe")

	require.Contains(t, fields, "device_manager")
	assert.Equal(t, []string{"Mutex", "Option"}, fields["device_manager"].Wrappers)
}

func TestParseCrudOperationAcceptsBareAndNamespacedForms(t *testing.T) {
	op, ok := ParseCrudOperation("crud.create")
	require.True(t, ok)
	assert.Equal(t, warp.OpCreate, op)

	op, ok = ParseCrudOperation("Read")
	require.True(t, ok)
	assert.Equal(t, warp.OpRead, op)

	_, ok = ParseCrudOperation("nonsense")
	assert.False(t, ok)
}

func TestParseReach(t *testing.T) {
	r, ok := ParseReach("Global")
	require.True(t, ok)
	assert.Equal(t, warp.ReachGlobal, r)

	_, ok = ParseReach("unknown")
	assert.False(t, ok)
}
