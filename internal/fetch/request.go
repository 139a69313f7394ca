package fetch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rshade/ghtrend/internal/cache"
	"github.com/rshade/ghtrend/internal/config"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// Defaults for result-affecting parameters.
const (
	DefaultTreeDepth   = 2
	DefaultIssuesLimit = 10
)

// ErrInvalidRequest reports request parameters that cannot be keyed.
var ErrInvalidRequest = errors.New("invalid request")

// Request is one of the closed set of fetchable categories. Each request type
// carries the parameters that affect its result and nothing else.
type Request interface {
	// Category is the cache category the result is stored under.
	Category() cache.Category
	// Service is the rate-limited upstream service the request consumes.
	Service() string
	// Describe returns a short human label such as "acme/rocket" or "daily/python".
	Describe() string

	keyParts() []string
}

// TrendingRequest selects one trending listing.
type TrendingRequest struct {
	Since    string
	Language string
}

// Normalize trims and lower-cases the parameters and applies defaults.
func (r TrendingRequest) Normalize() (TrendingRequest, error) {
	r.Since = strings.ToLower(strings.TrimSpace(r.Since))
	if r.Since == "" {
		r.Since = trending.SinceDaily
	}
	if !trending.ValidSince(r.Since) {
		return r, fmt.Errorf("%w: since must be daily, weekly or monthly, got %q", ErrInvalidRequest, r.Since)
	}
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))
	if r.Language == "" {
		r.Language = trending.LanguageAll
	}
	return r, nil
}

func (TrendingRequest) Category() cache.Category { return cache.CategoryTrending }
func (TrendingRequest) Service() string          { return config.ServiceTrending }
func (r TrendingRequest) Describe() string       { return r.Since + "/" + r.Language }
func (r TrendingRequest) keyParts() []string     { return []string{r.Since, r.Language} }

// RepoInfoRequest selects repository metadata.
type RepoInfoRequest struct{ Repo string }

func (RepoInfoRequest) Category() cache.Category { return cache.CategoryRepoInfo }
func (RepoInfoRequest) Service() string          { return config.ServiceGH }
func (r RepoInfoRequest) Describe() string       { return r.Repo }
func (r RepoInfoRequest) keyParts() []string     { return []string{r.Repo} }

// ReadmeRequest selects the default-branch README.
type ReadmeRequest struct{ Repo string }

func (ReadmeRequest) Category() cache.Category { return cache.CategoryReadme }
func (ReadmeRequest) Service() string          { return config.ServiceGH }
func (r ReadmeRequest) Describe() string       { return r.Repo }
func (r ReadmeRequest) keyParts() []string     { return []string{r.Repo} }

// TreeRequest selects the file tree down to Depth levels.
type TreeRequest struct {
	Repo  string
	Depth int
}

func (TreeRequest) Category() cache.Category { return cache.CategoryTree }
func (TreeRequest) Service() string          { return config.ServiceGH }
func (r TreeRequest) Describe() string       { return fmt.Sprintf("%s depth=%d", r.Repo, r.Depth) }
func (r TreeRequest) keyParts() []string     { return []string{r.Repo, "depth=" + strconv.Itoa(r.Depth)} }

// DepsRequest selects the dependency manifests in the repository root.
type DepsRequest struct{ Repo string }

func (DepsRequest) Category() cache.Category { return cache.CategoryDeps }
func (DepsRequest) Service() string          { return config.ServiceGH }
func (r DepsRequest) Describe() string       { return r.Repo }
func (r DepsRequest) keyParts() []string     { return []string{r.Repo} }

// IssuesRequest selects up to Limit open issues.
type IssuesRequest struct {
	Repo  string
	Limit int
}

func (IssuesRequest) Category() cache.Category { return cache.CategoryIssues }
func (IssuesRequest) Service() string          { return config.ServiceGH }
func (r IssuesRequest) Describe() string       { return fmt.Sprintf("%s limit=%d", r.Repo, r.Limit) }
func (r IssuesRequest) keyParts() []string     { return []string{r.Repo, "limit=" + strconv.Itoa(r.Limit)} }

// IssueRequest selects one issue or pull request.
type IssueRequest struct {
	Repo   string
	Number int
}

func (IssueRequest) Category() cache.Category { return cache.CategoryIssue }
func (IssueRequest) Service() string          { return config.ServiceGH }
func (r IssueRequest) Describe() string       { return fmt.Sprintf("%s#%d", r.Repo, r.Number) }
func (r IssueRequest) keyParts() []string     { return []string{r.Repo, strconv.Itoa(r.Number)} }

// HealthRequest selects the health report for a repository.
type HealthRequest struct{ Repo string }

func (HealthRequest) Category() cache.Category { return cache.CategoryHealth }
func (HealthRequest) Service() string          { return config.ServiceGitHubREST }
func (r HealthRequest) Describe() string       { return r.Repo }
func (r HealthRequest) keyParts() []string     { return []string{r.Repo} }

// NormalizeRepo validates "owner/name" and strips surrounding noise. Case is
// preserved for display; keys lower-case it.
func NormalizeRepo(repo string) (string, error) {
	owner, name, err := trending.SplitFullName(repo)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return owner + "/" + name, nil
}

// Key returns the cache key for req.
func Key(req Request) (cache.Key, error) {
	return cache.NewKey(req.Category(), req.keyParts()...)
}
