// Package gh reads repository metadata through the GitHub CLI (gh): repo
// stats, file trees, READMEs, dependency manifests and issues. The CLI handles
// authentication, so ghtrend never stores GitHub credentials for these calls.
package gh

import (
	"fmt"
	"strings"

	"github.com/rshade/ghtrend/internal/upstream"
)

// ghInstallURL is where users can install the GitHub CLI.
const ghInstallURL = "https://cli.github.com/"

// Sentinel errors for the gh integration.
var (
	// ErrGHNotFound indicates the gh binary is not in PATH.
	ErrGHNotFound = fmt.Errorf("%w: GitHub CLI (gh) not found; install from %s", upstream.ErrToolMissing, ghInstallURL)

	// ErrGHTooOld indicates the installed gh predates the JSON output flags we use.
	ErrGHTooOld = fmt.Errorf("%w: GitHub CLI is too old", upstream.ErrToolMissing)
)

// CommandError is a failed gh invocation. It unwraps to the upstream error
// class derived from the CLI's stderr, so errors.Is(err, upstream.ErrNotFound)
// works for missing repositories.
type CommandError struct {
	Operation string
	Args      []string
	ExitCode  int
	Stderr    string
	class     error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return fmt.Sprintf("gh %s failed: %s", e.Operation, msg)
}

// Unwrap returns the error class.
func (e *CommandError) Unwrap() error {
	return e.class
}

// newCommandError classifies stderr from a failed gh run.
func newCommandError(operation string, args []string, exitCode int, stderr string) *CommandError {
	return &CommandError{
		Operation: operation,
		Args:      args,
		ExitCode:  exitCode,
		Stderr:    stderr,
		class:     classifyStderr(stderr),
	}
}

func classifyStderr(stderr string) error {
	s := strings.ToLower(stderr)
	switch {
	case strings.Contains(s, "http 404"),
		strings.Contains(s, "not found"),
		strings.Contains(s, "could not resolve to a"):
		return upstream.ErrNotFound
	case strings.Contains(s, "rate limit"),
		strings.Contains(s, "http 429"),
		strings.Contains(s, "secondary rate"):
		return upstream.ErrThrottled
	case strings.Contains(s, "http 401"),
		strings.Contains(s, "gh auth login"),
		strings.Contains(s, "authentication"):
		return upstream.ErrUnauthorized
	default:
		return upstream.ErrUnavailable
	}
}
