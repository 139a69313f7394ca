// Package upstream holds what the adapters for external data sources share:
// the error taxonomy the fetcher classifies failures with, and the HTTP client
// used for the trending listing and raw file downloads.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"resty.dev/v3"
)

// Adapter failure classes. Adapters wrap one of these so callers can use
// errors.Is without knowing which source failed.
var (
	ErrUnavailable  = errors.New("upstream unavailable")
	ErrNotFound     = errors.New("not found")
	ErrMalformed    = errors.New("malformed upstream response")
	ErrThrottled    = errors.New("upstream rate limit exceeded")
	ErrUnauthorized = errors.New("not authenticated")
	ErrToolMissing  = errors.New("required tool not installed")
)

// DefaultTimeout applies when HTTPConfig.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is sent with every HTTP request; github.com serves a
// reduced page to clients without one.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ghtrend)"

// HTTPConfig configures NewHTTPClient.
type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPClient builds the resty client shared by the HTTP adapters.
func NewHTTPClient(cfg HTTPConfig) *resty.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)
}

// GetText issues a GET and returns the body of a 2xx response. Other
// statuses are mapped onto the error taxonomy.
func GetText(ctx context.Context, client *resty.Client, url string, headers map[string]string) (string, error) {
	req := client.R().SetContext(ctx)
	for k, v := range headers {
		req.SetHeader(k, v)
	}

	resp, err := req.Get(url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: GET %s: %w", ErrUnavailable, url, err)
	}

	if statusErr := StatusError(resp.StatusCode()); statusErr != nil {
		return "", fmt.Errorf("GET %s: %w", url, statusErr)
	}
	return resp.String(), nil
}

// StatusError maps a non-2xx HTTP status to a taxonomy error, or nil.
func StatusError(status int) error {
	switch {
	case status >= http.StatusOK && status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%w (HTTP %d)", ErrNotFound, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w (HTTP %d)", ErrThrottled, status)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w (HTTP %d)", ErrUnauthorized, status)
	case status == http.StatusForbidden:
		// GitHub reports exhausted rate limits as 403.
		return fmt.Errorf("%w (HTTP %d)", ErrThrottled, status)
	default:
		return fmt.Errorf("%w (HTTP %d)", ErrUnavailable, status)
	}
}

// Reason returns a short user-facing description of err's class.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, ErrToolMissing):
		return "tool missing"
	case errors.Is(err, ErrNotFound):
		return "repo not found"
	case errors.Is(err, ErrThrottled):
		return "rate limited by GitHub"
	case errors.Is(err, ErrUnauthorized):
		return "not authenticated"
	case errors.Is(err, ErrMalformed):
		return "unexpected response"
	case errors.Is(err, ErrUnavailable):
		return "network error"
	default:
		return "error"
	}
}
