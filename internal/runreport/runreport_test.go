package runreport_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/spire-loom/internal/runreport"
)

func TestReportCounters(t *testing.T) {
	r := runreport.New()
	r.RecordGenerated()
	r.RecordGenerated()
	r.RecordModified()
	r.RecordUnchanged()

	assert.Equal(t, 2, r.FilesGenerated)
	assert.Equal(t, 1, r.FilesModified)
	assert.Equal(t, 1, r.FilesUnchanged)
	assert.Equal(t, 0, r.ExitCode())
}

func TestAddErrorIgnoresNil(t *testing.T) {
	r := runreport.New()
	r.AddError(nil)
	assert.Empty(t, r.Errors)
	assert.Equal(t, 0, r.ExitCode())
}

func TestExitCodeNonZeroOnError(t *testing.T) {
	r := runreport.New()
	r.AddError(runreport.NewHookupError(errors.New("missing target file")))
	assert.Equal(t, 1, r.ExitCode())
}

func TestRunErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := runreport.NewPlanningError(inner)

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "planning")
}

func TestDiscoveryErrorNamesFile(t *testing.T) {
	err := runreport.NewDiscoveryError("loom/WARP.ts", errors.New("syntax error"))
	assert.Contains(t, err.Error(), "loom/WARP.ts")
	assert.Contains(t, err.Error(), "discovery")
}

func TestByCategoryGroupsRunErrors(t *testing.T) {
	r := runreport.New()
	r.AddError(runreport.NewHookupError(errors.New("a")))
	r.AddError(runreport.NewHookupError(errors.New("b")))
	r.AddError(runreport.NewSubprocessError(errors.New("c")))

	grouped := r.ByCategory()
	require.Len(t, grouped[runreport.CategoryHookup], 2)
	require.Len(t, grouped[runreport.CategorySubprocess], 1)
}

func TestByCategoryGroupsUncategorizedAsConfiguration(t *testing.T) {
	r := runreport.New()
	r.AddError(errors.New("plain error"))

	grouped := r.ByCategory()
	require.Len(t, grouped[runreport.CategoryConfiguration], 1)
}

func TestCategoryString(t *testing.T) {
	cases := map[runreport.Category]string{
		runreport.CategoryConfiguration:    "configuration",
		runreport.CategoryDiscovery:        "discovery",
		runreport.CategorySchemaValidation: "schema-validation",
		runreport.CategoryPlanning:         "planning",
		runreport.CategoryRendering:        "rendering",
		runreport.CategoryHookup:           "hookup",
		runreport.CategorySubprocess:       "subprocess",
	}

	for cat, want := range cases {
		assert.Equal(t, want, cat.String())
	}
}
