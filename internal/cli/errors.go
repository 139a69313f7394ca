package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/ghtrend/internal/batch"
	"github.com/rshade/ghtrend/internal/clones"
	"github.com/rshade/ghtrend/internal/fetch"
	"github.com/rshade/ghtrend/internal/listing"
	"github.com/rshade/ghtrend/internal/ratelimit"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitRateLimited = 3
)

// ExitCodeError attaches a process exit code to an error. main unwraps it
// with errors.As.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// usageError reports bad arguments or flags (exit 2).
func usageError(format string, args ...any) error {
	return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

// asUsage marks err as a usage error unless it already carries a code.
func asUsage(err error) error {
	if err == nil {
		return nil
	}
	var ec *ExitCodeError
	if errors.As(err, &ec) {
		return err
	}
	return &ExitCodeError{Code: ExitUsage, Err: err}
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ec *ExitCodeError
	if errors.As(err, &ec) {
		return ec.Code
	}
	switch {
	case errors.Is(err, ratelimit.ErrRateLimited):
		return ExitRateLimited
	case errors.Is(err, fetch.ErrInvalidRequest),
		errors.Is(err, listing.ErrInvalidRank),
		errors.Is(err, listing.ErrInvalidSortField),
		errors.Is(err, listing.ErrInvalidStars),
		errors.Is(err, listing.ErrInvalidTop),
		errors.Is(err, clones.ErrUnsafeName),
		errors.Is(err, batch.ErrInvalidConcurrency):
		return ExitUsage
	}
	return ExitFailure
}

// Message renders err for the user. Fetch failures name the category and
// the reason instead of the full error chain.
func Message(err error) string {
	var ff *fetch.FetchFailedError
	if errors.As(err, &ff) {
		return fmt.Sprintf("could not fetch %s for %s: %s", ff.Category, ff.Params, fetch.Reason(ff.Cause))
	}
	return err.Error()
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return asUsage(cobra.ExactArgs(n)(cmd, args))
	}
}

// maxArgs is cobra.MaximumNArgs with a usage exit code.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return asUsage(cobra.MaximumNArgs(n)(cmd, args))
	}
}
