package sley_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/sley"
	"github.com/hupe1980/spire-loom/internal/warp"
)

func TestMethodPipelineProcessEmptyIsIdentity(t *testing.T) {
	p := sley.NewMethodPipeline().Translate(sley.AddPrefix("x_"))
	assert.Empty(t, p.Process(nil))
}

func TestMethodPipelineAppliesTranslationsInOrder(t *testing.T) {
	methods := []warp.MethodMetadata{{Name: "rename"}}

	p := sley.NewMethodPipeline().
		Translate(sley.AddPrefix("a_")).
		Translate(sley.AddPrefix("b_"))

	out := p.Process(methods)
	require.Len(t, out, 1)
	assert.Equal(t, "b_a_rename", out[0].Name)
}

func TestFilterKeepsMatchingMethods(t *testing.T) {
	methods := []warp.MethodMetadata{
		{Name: "create", Operation: warp.OpCreate},
		{Name: "read", Operation: warp.OpRead},
	}

	out := sley.Filter(methods, func(m warp.MethodMetadata) bool {
		return m.Operation == warp.OpRead
	})

	require.Len(t, out, 1)
	assert.Equal(t, "read", out[0].Name)
}
