// Package shellout wraps non-interactive subprocess invocations (cargo,
// npm, prisma generate) the way spec.md section 4.6 leaves tool
// invocation unabstracted: stdout is scanned line by line for parse
// markers, stderr is captured verbatim and surfaced on a non-zero exit,
// and a context.Context is threaded through for the subprocess-wait
// suspension point described in spec.md section 5.
package shellout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hupe1980/spire-loom/internal/runreport"
)

// Command describes a single subprocess invocation.
type Command struct {
	// Name is the executable, e.g. "cargo", "npm", "npx".
	Name string
	Args []string
	// Dir is the working directory the subprocess runs in.
	Dir string
	// Env, if non-nil, replaces the inherited environment entirely.
	Env []string
	// MarkerPrefix, if non-empty, selects which stdout lines are
	// collected into Result.Markers (e.g. a tool that prints
	// "::spireloom::" progress lines on success).
	MarkerPrefix string
}

// Result is the outcome of a completed subprocess run.
type Result struct {
	// Markers holds stdout lines matching Command.MarkerPrefix, with
	// the prefix stripped.
	Markers []string
	Stdout  []byte
	Stderr  []byte
}

// Run executes cmd and blocks until it exits or ctx is done. A non-zero
// exit is reported as a *runreport.RunError in category
// CategorySubprocess carrying the captured stderr, per spec.md section 7
// item 7 ("Fails the task; logged with the tool's stderr").
func Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	if cmd.Env != nil {
		c.Env = cmd.Env
	}

	var stderr bytes.Buffer
	c.Stderr = &stderr

	stdout, err := c.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("shellout: attach stdout pipe for %s: %w", cmd.Name, err)
	}

	if err := c.Start(); err != nil {
		return Result{}, fmt.Errorf("shellout: start %s: %w", cmd.Name, err)
	}

	result := Result{}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		result.Stdout = append(result.Stdout, []byte(line+"\n")...)

		if cmd.MarkerPrefix != "" {
			if marker, ok := stripMarker(line, cmd.MarkerPrefix); ok {
				result.Markers = append(result.Markers, marker)
			}
		}
	}

	waitErr := c.Wait()
	result.Stderr = stderr.Bytes()

	if waitErr != nil {
		return result, runreport.NewSubprocessError(fmt.Errorf(
			"%s %v: %w: %s", cmd.Name, cmd.Args, waitErr, bytes.TrimSpace(result.Stderr),
		))
	}

	return result, nil
}

// stripMarker reports whether line carries prefix and, if so, returns the
// remainder with the prefix and surrounding whitespace removed.
func stripMarker(line, prefix string) (string, bool) {
	idx := strings.Index(line, prefix)
	if idx == -1 {
		return "", false
	}

	return strings.TrimSpace(line[idx+len(prefix):]), true
}
