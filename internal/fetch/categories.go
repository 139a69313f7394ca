package fetch

import (
	"context"
	"fmt"

	"github.com/rshade/ghtrend/internal/analyzer"
	"github.com/rshade/ghtrend/internal/logging"
	"github.com/rshade/ghtrend/internal/upstream"
	"github.com/rshade/ghtrend/internal/upstream/gh"
	"github.com/rshade/ghtrend/internal/upstream/rest"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// TrendingSource produces a trending listing. trending.APIClient and
// trending.Scraper implement it.
type TrendingSource interface {
	Name() string
	Fetch(ctx context.Context, since, language string) (*trending.Listing, error)
}

// MetadataSource reads repository metadata. gh.Client implements it.
type MetadataSource interface {
	Name() string
	RepoInfo(ctx context.Context, repo string) (gh.RepoInfo, error)
	Tree(ctx context.Context, repo, branch string, depth int) (gh.Tree, error)
	Readme(ctx context.Context, repo string) (string, error)
	DependencyFiles(ctx context.Context, repo string) (map[string]string, error)
	Issues(ctx context.Context, repo string, limit int) ([]gh.Issue, error)
	IssueDetail(ctx context.Context, repo string, number int) (gh.IssueDetail, error)
}

// ReadmeSource is a secondary README provider. raw.Client implements it.
type ReadmeSource interface {
	Name() string
	Readme(ctx context.Context, repo string) (string, error)
}

// HealthSource gathers health signals. rest.Client implements it.
type HealthSource interface {
	Signals(ctx context.Context, repo string) (rest.Signals, error)
}

var errNoMetadata = fmt.Errorf("%w: metadata source not configured", upstream.ErrToolMissing)

// Trending returns the listing for req, trying each trending source in order.
func (f *Fetcher) Trending(ctx context.Context, req TrendingRequest) (Result[trending.Listing], error) {
	req, err := req.Normalize()
	if err != nil {
		return Result[trending.Listing]{}, failed(req, err)
	}

	sources := make([]Source[trending.Listing], 0, len(f.trending))
	for _, ts := range f.trending {
		ts := ts
		sources = append(sources, Source[trending.Listing]{
			Name: ts.Name(),
			Fetch: func(ctx context.Context) (trending.Listing, error) {
				l, err := ts.Fetch(ctx, req.Since, req.Language)
				if err != nil {
					return trending.Listing{}, err
				}
				if len(l.Repos) == 0 {
					return trending.Listing{}, fmt.Errorf("%w: empty listing", upstream.ErrMalformed)
				}
				return *l, nil
			},
		})
	}
	return get(ctx, f, req, sources)
}

// RepoInfo returns repository metadata.
func (f *Fetcher) RepoInfo(ctx context.Context, repo string) (Result[gh.RepoInfo], error) {
	req, err := repoRequest(repo, func(r string) RepoInfoRequest { return RepoInfoRequest{Repo: r} })
	if err != nil {
		return Result[gh.RepoInfo]{}, err
	}
	return get(ctx, f, req, metaSource(f, func(ctx context.Context, m MetadataSource) (gh.RepoInfo, error) {
		return m.RepoInfo(ctx, req.Repo)
	}))
}

// Readme returns the README text, from gh first and the raw file host second.
func (f *Fetcher) Readme(ctx context.Context, repo string) (Result[string], error) {
	req, err := repoRequest(repo, func(r string) ReadmeRequest { return ReadmeRequest{Repo: r} })
	if err != nil {
		return Result[string]{}, err
	}
	sources := metaSource(f, func(ctx context.Context, m MetadataSource) (string, error) {
		return m.Readme(ctx, req.Repo)
	})
	if f.readmeBackup != nil {
		sources = append(sources, Source[string]{
			Name: f.readmeBackup.Name(),
			Fetch: func(ctx context.Context) (string, error) {
				return f.readmeBackup.Readme(ctx, req.Repo)
			},
		})
	}
	return get(ctx, f, req, sources)
}

// Tree returns the file tree down to depth levels. The branch comes from the
// repository's metadata, itself fetched through the cache.
func (f *Fetcher) Tree(ctx context.Context, repo string, depth int) (Result[gh.Tree], error) {
	if depth <= 0 {
		depth = DefaultTreeDepth
	}
	req, err := repoRequest(repo, func(r string) TreeRequest { return TreeRequest{Repo: r, Depth: depth} })
	if err != nil {
		return Result[gh.Tree]{}, err
	}
	return get(ctx, f, req, metaSource(f, func(ctx context.Context, m MetadataSource) (gh.Tree, error) {
		branch := "main"
		info, err := f.RepoInfo(ctx, req.Repo)
		switch {
		case err == nil && info.Value.DefaultBranch != "":
			branch = info.Value.DefaultBranch
		case err != nil:
			logging.FromContext(ctx).Debug().
				Ctx(ctx).
				Str("component", "fetch").
				Str("repo", req.Repo).
				Err(err).
				Msg("default branch unknown, trying main")
		}
		return m.Tree(ctx, req.Repo, branch, req.Depth)
	}))
}

// Deps returns the dependency manifests keyed by file name. An empty map
// means the repository has none.
func (f *Fetcher) Deps(ctx context.Context, repo string) (Result[map[string]string], error) {
	req, err := repoRequest(repo, func(r string) DepsRequest { return DepsRequest{Repo: r} })
	if err != nil {
		return Result[map[string]string]{}, err
	}
	return get(ctx, f, req, metaSource(f, func(ctx context.Context, m MetadataSource) (map[string]string, error) {
		files, err := m.DependencyFiles(ctx, req.Repo)
		if files == nil && err == nil {
			files = map[string]string{}
		}
		return files, err
	}))
}

// Issues returns up to limit open issues.
func (f *Fetcher) Issues(ctx context.Context, repo string, limit int) (Result[[]gh.Issue], error) {
	if limit <= 0 {
		limit = DefaultIssuesLimit
	}
	req, err := repoRequest(repo, func(r string) IssuesRequest { return IssuesRequest{Repo: r, Limit: limit} })
	if err != nil {
		return Result[[]gh.Issue]{}, err
	}
	return get(ctx, f, req, metaSource(f, func(ctx context.Context, m MetadataSource) ([]gh.Issue, error) {
		issues, err := m.Issues(ctx, req.Repo, req.Limit)
		if issues == nil && err == nil {
			issues = []gh.Issue{}
		}
		return issues, err
	}))
}

// Issue returns one issue or pull request with its comments.
func (f *Fetcher) Issue(ctx context.Context, repo string, number int) (Result[gh.IssueDetail], error) {
	req, err := repoRequest(repo, func(r string) IssueRequest { return IssueRequest{Repo: r, Number: number} })
	if err != nil {
		return Result[gh.IssueDetail]{}, err
	}
	if number <= 0 {
		return Result[gh.IssueDetail]{}, failed(req, fmt.Errorf("%w: issue number must be positive", ErrInvalidRequest))
	}
	return get(ctx, f, req, metaSource(f, func(ctx context.Context, m MetadataSource) (gh.IssueDetail, error) {
		return m.IssueDetail(ctx, req.Repo, number)
	}))
}

// Health returns the scored health report for repo.
func (f *Fetcher) Health(ctx context.Context, repo string) (Result[analyzer.Report], error) {
	req, err := repoRequest(repo, func(r string) HealthRequest { return HealthRequest{Repo: r} })
	if err != nil {
		return Result[analyzer.Report]{}, err
	}
	var sources []Source[analyzer.Report]
	if f.health != nil {
		sources = append(sources, Source[analyzer.Report]{
			Name: "github-rest",
			Fetch: func(ctx context.Context) (analyzer.Report, error) {
				s, err := f.health.Signals(ctx, req.Repo)
				if err != nil {
					return analyzer.Report{}, err
				}
				return analyzer.Score(s, f.now()), nil
			},
		})
	}
	return get(ctx, f, req, sources)
}

// repoRequest normalizes repo and builds a request from it.
func repoRequest[R Request](repo string, build func(string) R) (R, error) {
	normalized, err := NormalizeRepo(repo)
	if err != nil {
		req := build(repo)
		return req, failed(req, err)
	}
	return build(normalized), nil
}

// metaSource wraps a MetadataSource call as a one-element chain.
func metaSource[T any](f *Fetcher, call func(context.Context, MetadataSource) (T, error)) []Source[T] {
	if f.meta == nil {
		return []Source[T]{{
			Name: "gh",
			Fetch: func(context.Context) (T, error) {
				var zero T
				return zero, errNoMetadata
			},
		}}
	}
	m := f.meta
	return []Source[T]{{
		Name: m.Name(),
		Fetch: func(ctx context.Context) (T, error) {
			return call(ctx, m)
		},
	}}
}

