// Package tui renders ghtrend's terminal output with lipgloss and hosts the
// bubbletea picker used by interactive clone and cleanup.
package tui

import (
	"os"

	"golang.org/x/term"
)

// defaultWidth is used when the terminal width cannot be determined.
const defaultWidth = 80

// IsTTY reports whether both stdin and stdout are terminals.
func IsTTY() bool {
	return IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Width returns the stdout terminal width, or 80.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// UseColor decides whether to style output. mode is "auto", "always" or
// "never"; auto colors only a terminal with NO_COLOR unset.
func UseColor(mode string, out *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return IsTerminal(out)
}
