// Package raw downloads repository files from raw.githubusercontent.com.
// It is the fallback README source when the gh tool cannot provide one.
package raw

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resty.dev/v3"

	"github.com/rshade/ghtrend/internal/upstream"
)

// DefaultBase is the raw content host.
const DefaultBase = "https://raw.githubusercontent.com"

// readmeBranches are tried in order; most repositories use one of the two.
var readmeBranches = []string{"main", "master"}

// Client fetches raw files over HTTP.
type Client struct {
	client *resty.Client
	base   string
}

// NewClient creates a client. An empty base uses DefaultBase.
func NewClient(client *resty.Client, base string) *Client {
	if base == "" {
		base = DefaultBase
	}
	return &Client{client: client, base: strings.TrimRight(base, "/")}
}

// Name identifies the source in logs.
func (c *Client) Name() string { return "raw" }

// File downloads path from repo at ref.
func (c *Client) File(ctx context.Context, repo, ref, path string) (string, error) {
	u := fmt.Sprintf("%s/%s/%s/%s", c.base, repo, ref, strings.TrimLeft(path, "/"))
	return upstream.GetText(ctx, c.client, u, nil)
}

// Readme tries README.md on the main branch, then master.
func (c *Client) Readme(ctx context.Context, repo string) (string, error) {
	var errs []error
	for _, branch := range readmeBranches {
		text, err := c.File(ctx, repo, branch, "README.md")
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return "", fmt.Errorf("%w: empty README", upstream.ErrMalformed)
			}
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, err)
	}
	return "", errors.Join(errs...)
}
