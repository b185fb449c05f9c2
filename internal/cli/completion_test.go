package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionCommand_Bash(t *testing.T) {
	stdout, _, err := executeCommand("completion", "bash")
	require.NoError(t, err)
	assert.NotEmpty(t, stdout)
}

func TestCompletionCommand_InvalidShell(t *testing.T) {
	_, _, err := executeCommand("completion", "cobol")
	assert.Error(t, err)
}
