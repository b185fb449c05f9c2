package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeaveCommand_MissingWarpRootReturnsExitCode1(t *testing.T) {
	workspace := t.TempDir()

	_, _, err := executeCommand("weave", workspace)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, err.Error(), "weaving")
}

func TestWeaveCommand_RequiresExactlyOneArg(t *testing.T) {
	_, _, err := executeCommand("weave")
	assert.Error(t, err)
}

func TestWeaveCommand_DevBuildBypassesMinEngineVersionCheck(t *testing.T) {
	workspace := t.TempDir()

	_, _, err := executeCommand("--min-engine-version", ">= 99.0.0", "weave", workspace)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code, "a non-semver dev build should never fail on min-engine-version")
	assert.Contains(t, err.Error(), "weaving")
}

func TestSplitCommand(t *testing.T) {
	name, args := splitCommand("cargo build --release")
	assert.Equal(t, "cargo", name)
	assert.Equal(t, []string{"build", "--release"}, args)

	name, args = splitCommand("")
	assert.Empty(t, name)
	assert.Nil(t, args)
}
