// Package rest collects repository health signals from the GitHub REST API
// using go-github. Unauthenticated use works but is limited to 60 requests an
// hour, so a token from GITHUB_TOKEN is strongly recommended.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v67/github"

	"github.com/rshade/ghtrend/internal/logging"
	"github.com/rshade/ghtrend/internal/upstream"
)

// Page sizes for each signal request.
const (
	commitSample = 10
	issueSample  = 10
	pullSample   = 20
)

// PullSignal is the part of a pull request the scorer reads.
type PullSignal struct {
	State  string `json:"state"`
	Merged bool   `json:"merged"`
}

// Signals are the raw facts a health score is computed from.
type Signals struct {
	Repo          string       `json:"repo"`
	Description   string       `json:"description"`
	Language      string       `json:"language"`
	HTMLURL       string       `json:"html_url"`
	Stars         int          `json:"stars"`
	OpenIssues    int          `json:"open_issues"`
	Archived      bool         `json:"archived"`
	License       string       `json:"license,omitempty"`
	LatestCommit  time.Time    `json:"latest_commit,omitzero"`
	IssueComments []int        `json:"issue_comments"`
	Pulls         []PullSignal `json:"pulls"`
	Readme        string       `json:"readme"`
}

// Client wraps a go-github client.
type Client struct {
	gh *github.Client
}

// Option configures a Client.
type Option func(*github.Client) (*github.Client, error)

// WithToken authenticates requests. An empty token is ignored.
func WithToken(token string) Option {
	return func(c *github.Client) (*github.Client, error) {
		if token == "" {
			return c, nil
		}
		return c.WithAuthToken(token), nil
	}
}

// WithBaseURL points the client at another API root, such as GitHub
// Enterprise or a test server.
func WithBaseURL(base string) Option {
	return func(c *github.Client) (*github.Client, error) {
		if base == "" {
			return c, nil
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := c.BaseURL.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API base %q: %w", base, err)
		}
		c.BaseURL = u
		return c, nil
	}
}

// NewClient builds a client over httpClient (nil uses a client with timeout).
func NewClient(httpClient *http.Client, timeout time.Duration, opts ...Option) (*Client, error) {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = upstream.DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	c := github.NewClient(httpClient)
	c.UserAgent = upstream.DefaultUserAgent
	for _, opt := range opts {
		var err error
		if c, err = opt(c); err != nil {
			return nil, err
		}
	}
	return &Client{gh: c}, nil
}

// Name identifies the source in logs.
func (c *Client) Name() string { return "github-rest" }

// Signals gathers everything the scorer needs for one repository: metadata,
// recent commits, open issues, recent pull requests and the README.
func (c *Client) Signals(ctx context.Context, repo string) (Signals, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return Signals{}, fmt.Errorf("%w: invalid repository %q", upstream.ErrNotFound, repo)
	}
	log := logging.FromContext(ctx)

	r, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return Signals{}, classify(err, resp, "get repository")
	}
	s := Signals{
		Repo:        r.GetFullName(),
		Description: r.GetDescription(),
		Language:    r.GetLanguage(),
		HTMLURL:     r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		OpenIssues:  r.GetOpenIssuesCount(),
		Archived:    r.GetArchived(),
	}
	if l := r.GetLicense(); l != nil {
		s.License = l.GetSPDXID()
		if s.License == "" {
			s.License = l.GetName()
		}
	}

	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, name, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: commitSample},
	})
	switch {
	case err == nil:
		if len(commits) > 0 {
			s.LatestCommit = commits[0].GetCommit().GetAuthor().GetDate().Time
		}
	case isStatus(resp, http.StatusConflict):
		// Empty repository.
	default:
		return Signals{}, classify(err, resp, "list commits")
	}

	issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: issueSample},
	})
	if err != nil {
		return Signals{}, classify(err, resp, "list issues")
	}
	s.IssueComments = make([]int, 0, len(issues))
	for _, i := range issues {
		if i.IsPullRequest() {
			continue
		}
		s.IssueComments = append(s.IssueComments, i.GetComments())
	}

	pulls, resp, err := c.gh.PullRequests.List(ctx, owner, name, &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: pullSample},
	})
	if err != nil {
		return Signals{}, classify(err, resp, "list pull requests")
	}
	s.Pulls = make([]PullSignal, 0, len(pulls))
	for _, p := range pulls {
		s.Pulls = append(s.Pulls, PullSignal{State: p.GetState(), Merged: !p.GetMergedAt().IsZero()})
	}

	readme, resp, err := c.gh.Repositories.GetReadme(ctx, owner, name, nil)
	switch {
	case err == nil:
		text, decodeErr := readme.GetContent()
		if decodeErr != nil {
			log.Debug().Ctx(ctx).Str("component", "rest").Str("repo", repo).Err(decodeErr).Msg("undecodable README")
		}
		s.Readme = text
	case isStatus(resp, http.StatusNotFound):
	default:
		return Signals{}, classify(err, resp, "get readme")
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "rest").
		Str("repo", repo).
		Int("commits", len(commits)).
		Int("issues", len(s.IssueComments)).
		Int("pulls", len(s.Pulls)).
		Msg("collected health signals")
	return s, nil
}

func isStatus(resp *github.Response, code int) bool {
	return resp != nil && resp.Response != nil && resp.StatusCode == code
}

// classify maps go-github errors onto the upstream error classes.
func classify(err error, resp *github.Response, op string) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return fmt.Errorf("%w: %s: %w", upstream.ErrThrottled, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	if resp != nil && resp.Response != nil {
		if statusErr := upstream.StatusError(resp.StatusCode); statusErr != nil {
			return fmt.Errorf("%s: %w: %w", op, statusErr, err)
		}
		return fmt.Errorf("%w: %s: %w", upstream.ErrMalformed, op, err)
	}
	return fmt.Errorf("%w: %s: %w", upstream.ErrUnavailable, op, err)
}
