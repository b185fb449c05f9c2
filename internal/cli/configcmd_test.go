package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCommand_PrintsResolvedYAML(t *testing.T) {
	stdout, _, err := executeCommand("config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "logLevel:")
	assert.Contains(t, stdout, "registryPath:")
}

func TestConfigCommand_ReflectsFlagOverride(t *testing.T) {
	stdout, _, err := executeCommand("--log-level", "debug", "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "logLevel: debug")
}
