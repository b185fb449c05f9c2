// Package ui provides colored terminal output for the spireloom CLI,
// respecting the --no-color flag and the NO_COLOR environment variable
// (fatih/color already honors NO_COLOR; InitColors adds the explicit flag).
package ui

import (
	"github.com/fatih/color"
)

var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
)

// InitColors configures global color output based on the --no-color flag.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Success prints a green success line.
func Success(format string, args ...any) {
	_, _ = Green.Printf(format+"\n", args...)
}

// Warn prints a yellow warning line.
func Warn(format string, args ...any) {
	_, _ = Yellow.Printf(format+"\n", args...)
}

// Fail prints a red error line.
func Fail(format string, args ...any) {
	_, _ = Red.Printf(format+"\n", args...)
}

// Count returns a cyan-formatted value for inline statistics.
func Count(v any) string {
	return Cyan.Sprint(v)
}
