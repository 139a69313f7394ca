package fetch

import (
	"fmt"

	"github.com/rshade/ghtrend/internal/cache"
	"github.com/rshade/ghtrend/internal/upstream"
)

// FetchFailedError is the terminal failure for one request: no fresh record,
// every source failed or was rate limited, and no stale record could be used.
// It unwraps to the cause, so errors.Is(err, ratelimit.ErrRateLimited) and
// errors.Is(err, upstream.ErrNotFound) work through it.
type FetchFailedError struct {
	Category cache.Category
	Params   string
	Cause    error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch %s (%s) failed: %s: %v", e.Category, e.Params, Reason(e.Cause), e.Cause)
}

// Unwrap returns the cause.
func (e *FetchFailedError) Unwrap() error {
	return e.Cause
}

func failed(req Request, cause error) *FetchFailedError {
	return &FetchFailedError{Category: req.Category(), Params: req.Describe(), Cause: cause}
}

// Reason describes the class of err for users. Rate limiting by the local
// limiter reads the same as throttling by GitHub.
func Reason(err error) string {
	if isRateLimited(err) {
		return "rate limited"
	}
	return upstream.Reason(err)
}
