package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/ghtrend/internal/cache"
	"github.com/rshade/ghtrend/internal/cli"
	"github.com/rshade/ghtrend/internal/clones"
	"github.com/rshade/ghtrend/internal/export"
	"github.com/rshade/ghtrend/internal/fetch"
	"github.com/rshade/ghtrend/internal/ratelimit"
	"github.com/rshade/ghtrend/internal/upstream"
	"github.com/rshade/ghtrend/internal/upstream/gh"
	"github.com/rshade/ghtrend/internal/upstream/rest"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// stubTrending serves a fixed listing and counts calls.
type stubTrending struct {
	mu    sync.Mutex
	repos []trending.Repo
	err   error
	calls int
}

func (s *stubTrending) Name() string { return "stub" }

func (s *stubTrending) Fetch(_ context.Context, since, language string) (*trending.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &trending.Listing{
		Since: since, Language: language, PubDate: "2026-10-18", Source: trending.SourceAPI, Repos: s.repos,
	}, nil
}

// stubMeta answers every metadata call from canned values.
type stubMeta struct {
	mu       sync.Mutex
	lastRepo string
	readme   string
	issues   []gh.Issue
	detail   gh.IssueDetail
	deps     map[string]string
}

func (m *stubMeta) Name() string { return "gh" }

func (m *stubMeta) seen(repo string) {
	m.mu.Lock()
	m.lastRepo = repo
	m.mu.Unlock()
}

func (m *stubMeta) RepoInfo(_ context.Context, repo string) (gh.RepoInfo, error) {
	m.seen(repo)
	return gh.RepoInfo{FullName: repo, Stars: 1234, DefaultBranch: "main"}, nil
}

func (m *stubMeta) Tree(_ context.Context, repo, branch string, _ int) (gh.Tree, error) {
	m.seen(repo)
	return gh.Tree{Repo: repo, Branch: branch, Total: 1, Entries: []gh.TreeEntry{{Path: "main.go", Type: gh.EntryBlob}}}, nil
}

func (m *stubMeta) Readme(_ context.Context, repo string) (string, error) {
	m.seen(repo)
	return m.readme, nil
}

func (m *stubMeta) DependencyFiles(_ context.Context, repo string) (map[string]string, error) {
	m.seen(repo)
	return m.deps, nil
}

func (m *stubMeta) Issues(_ context.Context, repo string, _ int) ([]gh.Issue, error) {
	m.seen(repo)
	return m.issues, nil
}

func (m *stubMeta) IssueDetail(_ context.Context, repo string, number int) (gh.IssueDetail, error) {
	m.seen(repo)
	d := m.detail
	d.Number = number
	return d, nil
}

// stubHealth returns signals, or an error for repos in fail.
type stubHealth struct {
	fail map[string]error
}

func (h stubHealth) Signals(_ context.Context, repo string) (rest.Signals, error) {
	if err, ok := h.fail[repo]; ok {
		return rest.Signals{}, err
	}
	return rest.Signals{
		Repo: repo, Stars: 20000, License: "MIT", LatestCommit: time.Now(),
		Readme: strings.Repeat("docs ", 400),
	}, nil
}

// stubCloner creates a checkout with a README instead of cloning.
type stubCloner struct {
	mu     sync.Mutex
	urls   []string
	depths []int
}

func (c *stubCloner) Clone(_ context.Context, url, dir string, depth int) error {
	c.mu.Lock()
	c.urls = append(c.urls, url)
	c.depths = append(c.depths, depth)
	c.mu.Unlock()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o750); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Hello from "+filepath.Base(dir)+"\n"), 0o600)
}

type stubLauncher struct {
	runs []string
}

func (l *stubLauncher) Run(_ context.Context, name string, args ...string) error {
	l.runs = append(l.runs, name+" "+strings.Join(args, " "))
	return nil
}

func (l *stubLauncher) Start(name string, args ...string) error {
	l.runs = append(l.runs, name+" "+strings.Join(args, " "))
	return nil
}

func sampleRepos(n int) []trending.Repo {
	repos := make([]trending.Repo, n)
	for i := range repos {
		repos[i] = trending.Repo{
			Owner:       "acme",
			Name:        fmt.Sprintf("r%d", i+1),
			Description: fmt.Sprintf("repository number %d", i+1),
			Language:    "Go",
			Stars:       (i + 1) * 100,
			StarsToday:  i + 1,
		}
	}
	return repos
}

type testEnv struct {
	t        *testing.T
	trending *stubTrending
	meta     *stubMeta
	fetcher  *fetch.Fetcher
	cacheDir string
	opts     []cli.Option
}

func newTestEnv(t *testing.T, opts ...fetch.Option) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("GHTREND_CONFIG", filepath.Join(home, "config.yaml"))
	t.Setenv("GHTREND_LOG_LEVEL", "error")
	t.Setenv("GHTREND_CACHE_DIR", filepath.Join(home, "cache"))
	t.Setenv("GHTREND_CLONE_DIR", "")
	t.Setenv("NO_COLOR", "1")

	env := &testEnv{
		t:        t,
		trending: &stubTrending{repos: sampleRepos(12)},
		meta:     &stubMeta{readme: "line one\nline two\n", deps: map[string]string{"go.mod": "module acme"}},
		cacheDir: filepath.Join(home, "cache"),
	}
	store, err := cache.NewFileStore(env.cacheDir)
	require.NoError(t, err)

	all := append([]fetch.Option{
		fetch.WithTrendingSources(env.trending),
		fetch.WithMetadata(env.meta),
		fetch.WithHealth(stubHealth{}),
	}, opts...)
	env.fetcher = fetch.New(store, nil, nil, all...)
	env.opts = []cli.Option{cli.WithFetcher(env.fetcher), cli.WithInteractive(false)}
	return env
}

func (e *testEnv) run(stdin string, extra []cli.Option, args ...string) (string, string, error) {
	e.t.Helper()
	cmd := cli.NewRootCmd("test", append(append([]cli.Option{}, e.opts...), extra...)...)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestList_Default(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run("", nil)
	require.NoError(t, err)

	assert.Contains(t, out, "GitHub Trending - daily (all)")
	assert.Contains(t, out, "1. acme/r1")
	assert.Contains(t, out, "10. acme/r10")
	assert.NotContains(t, out, "acme/r11")
	assert.Contains(t, out, "Updated: 2026-10-18")
	assert.Contains(t, out, "Showing 10 repositories")
}

func TestList_FilterSortTop(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run("", nil, "--min-stars", "500", "--max-stars", "900", "--sort", "stars", "-t", "2", "-v")
	require.NoError(t, err)

	assert.Contains(t, out, "1. acme/r9")
	assert.Contains(t, out, "2. acme/r8")
	assert.NotContains(t, out, "acme/r7")
	assert.Contains(t, out, "https://github.com/acme/r9")
	assert.Contains(t, out, "Showing 2 repositories")
}

func TestList_OutputJSON(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run("", nil, "--output-json", "-t", "3", "-s", "weekly", "-l", "Go")
	require.NoError(t, err)

	var doc export.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 3, doc.Count)
	assert.Equal(t, "weekly", doc.Since)
	assert.Equal(t, "go", doc.Language)
	assert.False(t, doc.Stale)
	require.Len(t, doc.Repositories, 3)
	assert.Equal(t, "acme/r1", doc.Repositories[0].Title)
}

func TestList_ExportCSV(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "out", "trending.csv")
	out, _, err := env.run("", nil, "--csv", path, "-t", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 repositories to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "rank,title,stars"))
}

func TestList_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad sort", []string{"--sort", "forks"}},
		{"inverted star bounds", []string{"--min-stars", "10", "--max-stars", "5"}},
		{"negative top", []string{"-t", "-1"}},
		{"bad since", []string{"-s", "yearly"}},
		{"unknown flag", []string{"--nope"}},
		{"exclusive exports", []string{"--csv", "a.csv", "--output-json"}},
		{"stray argument", []string{"python"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, _, err := env.run("", nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, cli.ExitUsage, cli.ExitCode(err), "error: %v", err)
		})
	}
}

func TestList_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.trending.err = fmt.Errorf("%w: connection refused", upstream.ErrUnavailable)

	_, _, err := env.run("", nil)
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.ExitCode(err))
	assert.Contains(t, cli.Message(err), "could not fetch trending for daily/all")
}

func TestList_SecondRunServedFromCache(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run("", nil)
	require.NoError(t, err)
	_, _, err = env.run("", nil, "--sort", "name")
	require.NoError(t, err)
	assert.Equal(t, 1, env.trending.calls)
}

func TestInfo_ByRankAndArgument(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run("", nil, "info", "--rank", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Repository Info: acme/r2")
	assert.Equal(t, "acme/r2", env.meta.lastRepo)

	out, _, err = env.run("", nil, "info", " Other/Thing/ ", "--raw")
	require.NoError(t, err)
	var info gh.RepoInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "Other/Thing", info.FullName)
}

func TestEvaluation_TargetErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no target", []string{"info"}},
		{"both targets", []string{"info", "acme/r1", "--rank", "1"}},
		{"rank out of range", []string{"tree", "--rank", "99"}},
		{"bad repo", []string{"readme", "not-a-repo"}},
		{"bad depth", []string{"tree", "acme/r1", "--depth", "0"}},
		{"bad issue number", []string{"issue", "acme/r1", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, _, err := env.run("", nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, cli.ExitUsage, cli.ExitCode(err), "error: %v", err)
		})
	}
}

func TestEvaluationCommands(t *testing.T) {
	env := newTestEnv(t)
	env.meta.issues = []gh.Issue{{Number: 3, Title: "Flaky test", State: "open", Author: "ann"}}
	env.meta.detail = gh.IssueDetail{Issue: gh.Issue{Title: "Crash on start", State: "open"}}

	out, _, err := env.run("", nil, "tree", "acme/r1")
	require.NoError(t, err)
	assert.Contains(t, out, "main.go")

	out, _, err = env.run("", nil, "readme", "acme/r1", "--lines", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "line one")
	assert.NotContains(t, out, "line two")

	out, _, err = env.run("", nil, "readme", "--rank", "1", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, `"readme": "line one\nline two\n"`)

	out, _, err = env.run("", nil, "deps", "acme/r1")
	require.NoError(t, err)
	assert.Contains(t, out, "module acme")

	out, _, err = env.run("", nil, "issues", "acme/r1")
	require.NoError(t, err)
	assert.Contains(t, out, "#3: Flaky test")

	out, _, err = env.run("", nil, "issue", "acme/r1", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "Crash on start")

	out, _, err = env.run("", nil, "issue", "--rank", "3", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "#7")
	assert.Equal(t, "acme/r3", env.meta.lastRepo)
}

func TestRateLimitedExitCode(t *testing.T) {
	env := newTestEnv(t)
	limiter := ratelimit.New(ratelimit.NewMemoryLedger(), map[string]ratelimit.Rule{
		"gh": {MaxCalls: 1, Window: time.Hour},
	}, ratelimit.WithMaxWait(0))
	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	env.opts[0] = cli.WithFetcher(fetch.New(store, nil, limiter,
		fetch.WithTrendingSources(env.trending), fetch.WithMetadata(env.meta)))

	_, _, err = env.run("", nil, "info", "acme/r1")
	require.NoError(t, err)
	_, _, err = env.run("", nil, "info", "acme/r2")
	require.Error(t, err)
	assert.Equal(t, cli.ExitRateLimited, cli.ExitCode(err))
	assert.Contains(t, cli.Message(err), "rate limited")
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t, fetch.WithHealth(stubHealth{fail: map[string]error{
		"acme/r2": fmt.Errorf("%w: gone", upstream.ErrNotFound),
	}}))

	out, _, err := env.run("", nil, "analyze", "-t", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "TRENDING DIGEST")
	assert.Contains(t, out, "acme/r1")
	assert.Contains(t, out, "acme/r3")
	assert.Contains(t, out, "Error:")
	assert.Less(t, strings.Index(out, "acme/r1"), strings.Index(out, "acme/r2"), "failed reports sort last")

	out, _, err = env.run("", nil, "analyze", "--rank", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Grade:")
}

func TestAnalyze_AllFailed(t *testing.T) {
	boom := fmt.Errorf("%w: offline", upstream.ErrUnavailable)
	env := newTestEnv(t, fetch.WithHealth(stubHealth{fail: map[string]error{"acme/r1": boom, "acme/r2": boom}}))

	_, _, err := env.run("", nil, "analyze", "-t", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestClone_ByRanks(t *testing.T) {
	env := newTestEnv(t)
	cloner := &stubCloner{}
	dir := t.TempDir()
	extra := []cli.Option{cli.WithCloneOptions(clones.WithCloner(cloner))}

	out, _, err := env.run("", extra, "clone", "1,3", "--dir", dir, "--shallow")
	require.NoError(t, err)
	assert.Contains(t, out, "Cloned acme/r1 into "+filepath.Join(dir, "r1"))
	assert.Contains(t, out, "Cloned acme/r3")
	assert.Equal(t, []string{"https://github.com/acme/r1.git", "https://github.com/acme/r3.git"}, cloner.urls)
	assert.Equal(t, []int{1, 1}, cloner.depths)

	out, _, err = env.run("", extra, "clones", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "r3")
	assert.Contains(t, out, "2 repositories")
}

func TestClone_ExistingDirectory(t *testing.T) {
	env := newTestEnv(t)
	cloner := &stubCloner{}
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "r1"), 0o750))

	// Non-interactive sessions never overwrite.
	extra := []cli.Option{cli.WithCloneOptions(clones.WithCloner(cloner))}
	out, _, err := env.run("y\n", extra, "clone", "1", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Skipped acme/r1")
	assert.Empty(t, cloner.urls)

	extra = append(extra, cli.WithInteractive(true))
	out, _, err = env.run("y\n", extra, "clone", "1", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Directory already exists")
	assert.Contains(t, out, "Cloned acme/r1")
}

func TestClone_ArgumentErrors(t *testing.T) {
	env := newTestEnv(t)
	for _, args := range [][]string{
		{"clone"},
		{"clone", "1", "--interactive"},
		{"clone", "0"},
		{"clone", "50"},
		{"clone", "--interactive"}, // not a terminal
	} {
		_, _, err := env.run("", nil, args...)
		require.Error(t, err, "args %v", args)
		assert.Equal(t, cli.ExitUsage, cli.ExitCode(err), "args %v: %v", args, err)
	}
}

func TestClone_Interactive(t *testing.T) {
	env := newTestEnv(t)
	cloner := &stubCloner{}
	var offered []string
	picker := func(_ context.Context, _ string, items []string) ([]int, error) {
		offered = items
		return []int{1}, nil
	}
	extra := []cli.Option{
		cli.WithCloneOptions(clones.WithCloner(cloner)),
		cli.WithInteractive(true),
		cli.WithPicker(picker),
	}

	out, _, err := env.run("", extra, "clone", "-i", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Len(t, offered, 12)
	assert.Contains(t, out, "Cloned acme/r2")
	assert.Equal(t, []string{"https://github.com/acme/r2.git"}, cloner.urls)
}

func TestCleanup(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	extra := []cli.Option{cli.WithCloneOptions(clones.WithCloner(&stubCloner{}))}
	_, _, err := env.run("", extra, "clone", "1-3", "--dir", dir)
	require.NoError(t, err)

	out, _, err := env.run("", nil, "cleanup", "r1", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed")
	assert.NoDirExists(t, filepath.Join(dir, "r1"))

	_, _, err = env.run("", nil, "cleanup", "../etc", "--dir", dir)
	require.Error(t, err)

	// Removing everything needs a confirmation, which non-interactive runs decline.
	out, _, err = env.run("y\n", nil, "cleanup", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing removed.")
	assert.DirExists(t, filepath.Join(dir, "r2"))

	out, _, err = env.run("y\n", []cli.Option{cli.WithInteractive(true)}, "cleanup", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Remove all 2 repositories")
	assert.NoDirExists(t, filepath.Join(dir, "r2"))
	assert.NoDirExists(t, filepath.Join(dir, "r3"))
}

func TestExplore_AutoCleanup(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()
	launcher := &stubLauncher{}
	extra := []cli.Option{cli.WithCloneOptions(clones.WithCloner(&stubCloner{}), clones.WithLauncher(launcher))}

	out, _, err := env.run("", extra, "explore", "2", "--dir", dir, "--editor", "vim", "--auto-cleanup", "--show-readme")
	require.NoError(t, err)
	assert.Contains(t, out, "# Hello from r2")
	assert.Contains(t, out, "Explored acme/r2")
	require.Len(t, launcher.runs, 1)
	assert.True(t, strings.HasPrefix(launcher.runs[0], "vim "))
	assert.NoDirExists(t, filepath.Join(dir, "r2"))
}

func TestCacheStatsAndClear(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run("", nil)
	require.NoError(t, err)

	out, _, err := env.run("", nil, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "trending")
	assert.Contains(t, out, "1 entries (1 fresh, 0 stale)")

	out, _, err = env.run("", nil, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 cache entries from "+env.cacheDir)

	_, _, err = env.run("", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, env.trending.calls, "cleared listing is fetched again")
}

func TestConfigInitShowPath(t *testing.T) {
	env := newTestEnv(t)
	path := os.Getenv("GHTREND_CONFIG")

	out, _, err := env.run("", nil, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration initialized at "+path)
	assert.FileExists(t, path)

	_, _, err = env.run("", nil, "config", "init")
	require.Error(t, err)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))

	_, _, err = env.run("", nil, "config", "init", "--force")
	require.NoError(t, err)

	t.Setenv("GITHUB_TOKEN", "secret-token")
	out, _, err = env.run("", nil, "config", "show", "--no-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "# source: "+path)
	assert.Contains(t, out, "# github token: set")
	assert.Contains(t, out, "enabled: false")
	assert.NotContains(t, out, "secret-token")

	out, _, err = env.run("", nil, "config", "path", "--cache-dir", "/tmp/elsewhere")
	require.NoError(t, err)
	assert.Contains(t, out, "config: "+path)
	assert.Contains(t, out, "cache:  /tmp/elsewhere")
}

func TestInvalidConfigFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(os.Getenv("GHTREND_CONFIG"), []byte("cache:\n  stale_on_error: sometimes\n"), 0o600))

	_, _, err := env.run("", nil, "languages")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale_on_error")
}

func TestLanguages(t *testing.T) {
	env := newTestEnv(t)
	out, _, err := env.run("", nil, "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "python")
	assert.Contains(t, out, "rust")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, cli.ExitOK},
		{"generic", errors.New("boom"), cli.ExitFailure},
		{"rate limited", &ratelimit.LimitError{Service: "gh", RetryAfter: time.Second}, cli.ExitRateLimited},
		{"wrapped rate limit", &fetch.FetchFailedError{Category: cache.CategoryReadme, Params: "a/b", Cause: ratelimit.ErrRateLimited}, cli.ExitRateLimited},
		{"explicit", &cli.ExitCodeError{Code: 7, Err: errors.New("x")}, 7},
		{"invalid request", fmt.Errorf("x: %w", fetch.ErrInvalidRequest), cli.ExitUsage},
		{"unsafe name", clones.ErrUnsafeName, cli.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cli.ExitCode(tt.err))
		})
	}
}

func TestConfirm(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, cli.Confirm(&buf, strings.NewReader("y\n"), false, "Proceed?").Accepted)
	assert.Empty(t, buf.String(), "non-interactive sessions are not prompted")

	assert.True(t, cli.Confirm(&buf, strings.NewReader("YES\n"), true, "Proceed?").Accepted)
	assert.Contains(t, buf.String(), "Proceed? [y/N]")
	assert.True(t, cli.Confirm(&buf, strings.NewReader("y"), true, "Proceed?").Accepted)
	assert.False(t, cli.Confirm(&buf, strings.NewReader("\n"), true, "Proceed?").Accepted)
	assert.False(t, cli.Confirm(&buf, strings.NewReader(""), true, "Proceed?").Accepted)
}
