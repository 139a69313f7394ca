package gh

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/ghtrend/internal/upstream"
)

// MinVersion is the oldest gh release with the --json and --jq flags we rely on.
const MinVersion = "2.0.0"

// MinIssueFetch is the smallest page requested from gh issue list.
const MinIssueFetch = 20

// ManifestPatterns are the dependency manifests looked up in a repository root.
// Patterns use path.Match syntax.
var ManifestPatterns = []string{
	"requirements.txt", "pyproject.toml", "setup.py", "Pipfile", "setup.cfg",
	"package.json",
	"Cargo.toml",
	"go.mod",
	"Gemfile",
	"pom.xml", "build.gradle", "build.gradle.kts",
	"*.csproj", "*.fsproj", "packages.config",
	"composer.json",
	"Package.swift",
}

var (
	versionRe   = regexp.MustCompile(`gh version (\S+)`)
	issueFields = "number,title,state,author,labels,createdAt,url"
	viewFields  = issueFields + ",body,comments"
)

// Tree is a depth-filtered recursive listing of one branch.
type Tree struct {
	Repo      string      `json:"repo"`
	Branch    string      `json:"branch"`
	Depth     int         `json:"depth"`
	Total     int         `json:"total_items"`
	Truncated bool        `json:"truncated,omitempty"`
	Entries   []TreeEntry `json:"entries"`
}

// Client runs gh for one process. It is safe for concurrent use.
type Client struct {
	runner  CommandRunner
	binary  string
	timeout time.Duration

	mu      sync.Mutex
	checked bool
}

// NewClient creates a client. A nil runner uses ExecRunner; an empty binary
// uses "gh"; a zero timeout uses DefaultTimeout.
func NewClient(runner CommandRunner, binary string, timeout time.Duration) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	if binary == "" {
		binary = "gh"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{runner: runner, binary: binary, timeout: timeout}
}

// Name identifies the source in logs.
func (c *Client) Name() string { return "gh" }

// CheckVersion verifies the installed gh is at least MinVersion. A passing
// check is remembered for the life of the client.
func (c *Client) CheckVersion(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checked {
		return nil
	}
	if err := c.checkVersion(ctx); err != nil {
		return err
	}
	c.checked = true
	return nil
}

func (c *Client) checkVersion(ctx context.Context) error {
	out, err := c.run(ctx, cmdConfig{operation: "version", args: []string{"--version"}})
	if err != nil {
		return err
	}
	v, err := ParseVersion(string(out))
	if err != nil {
		return err
	}
	minimum := semver.MustParse(MinVersion)
	if v.LessThan(minimum) {
		return fmt.Errorf("%w: found %s, need %s or newer (%s)", ErrGHTooOld, v, MinVersion, ghInstallURL)
	}
	return nil
}

// ParseVersion extracts the version from `gh --version` output.
func ParseVersion(output string) (*semver.Version, error) {
	m := versionRe.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("%w: unrecognized gh version output %q", upstream.ErrMalformed, strings.TrimSpace(output))
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: parsing gh version %q: %w", upstream.ErrMalformed, m[1], err)
	}
	return v, nil
}

// exec checks the version, then runs cfg.
func (c *Client) exec(ctx context.Context, cfg cmdConfig) ([]byte, error) {
	if err := c.CheckVersion(ctx); err != nil {
		return nil, err
	}
	return c.run(ctx, cfg)
}

func (c *Client) execJSON(ctx context.Context, cfg cmdConfig, v any) error {
	out, err := c.exec(ctx, cfg)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("%w: decoding gh %s output: %w", upstream.ErrMalformed, cfg.operation, err)
	}
	return nil
}

// RepoInfo returns repository metadata.
func (c *Client) RepoInfo(ctx context.Context, repo string) (RepoInfo, error) {
	var raw apiRepo
	err := c.execJSON(ctx, cmdConfig{
		operation: "repo-info",
		repo:      repo,
		args:      []string{"api", "repos/" + repo},
	}, &raw)
	if err != nil {
		return RepoInfo{}, err
	}
	if raw.FullName == "" {
		return RepoInfo{}, fmt.Errorf("%w: repository response for %s has no full_name", upstream.ErrMalformed, repo)
	}
	return raw.normalize(), nil
}

// Tree lists branch recursively and keeps entries shallower than depth. When
// branch is "main" and the lookup fails, "master" is tried.
func (c *Client) Tree(ctx context.Context, repo, branch string, depth int) (Tree, error) {
	if branch == "" {
		branch = "main"
	}
	raw, err := c.tree(ctx, repo, branch)
	if err != nil && branch == "main" && ctx.Err() == nil && !errors.Is(err, upstream.ErrToolMissing) {
		branch = "master"
		var retryErr error
		raw, retryErr = c.tree(ctx, repo, branch)
		if retryErr != nil {
			return Tree{}, errors.Join(err, retryErr)
		}
		err = nil
	}
	if err != nil {
		return Tree{}, err
	}
	return Tree{
		Repo:      repo,
		Branch:    branch,
		Depth:     depth,
		Total:     len(raw.Tree),
		Truncated: raw.Truncated,
		Entries:   FilterTree(raw.Tree, depth),
	}, nil
}

func (c *Client) tree(ctx context.Context, repo, branch string) (apiTree, error) {
	var raw apiTree
	err := c.execJSON(ctx, cmdConfig{
		operation: "tree",
		repo:      repo,
		args:      []string{"api", fmt.Sprintf("repos/%s/git/trees/%s?recursive=1", repo, branch)},
	}, &raw)
	return raw, err
}

// Readme returns the decoded README of the default branch.
func (c *Client) Readme(ctx context.Context, repo string) (string, error) {
	out, err := c.exec(ctx, cmdConfig{
		operation: "readme",
		repo:      repo,
		args:      []string{"api", "repos/" + repo + "/readme", "--jq", ".content"},
	})
	if err != nil {
		return "", err
	}
	text, err := DecodeContent(string(out))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty README", upstream.ErrMalformed)
	}
	return text, nil
}

// DecodeContent decodes the line-wrapped base64 the contents API returns.
func DecodeContent(encoded string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t', '"':
			return -1
		}
		return r
	}, encoded)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64 content: %w", upstream.ErrMalformed, err)
	}
	return string(b), nil
}

// DependencyFiles lists the repository root and downloads every file that
// matches ManifestPatterns. A repository with none yields an empty map. A
// manifest that disappears between listing and download (404) is skipped;
// any other download failure fails the whole call so a partial result is
// never cached.
func (c *Client) DependencyFiles(ctx context.Context, repo string) (map[string]string, error) {
	var entries []contentEntry
	err := c.execJSON(ctx, cmdConfig{
		operation: "contents",
		repo:      repo,
		args:      []string{"api", "repos/" + repo + "/contents"},
	}, &entries)
	if err != nil {
		return nil, err
	}

	files := make(map[string]string)
	for _, name := range matchManifests(entries) {
		out, err := c.exec(ctx, cmdConfig{
			operation: "manifest",
			repo:      repo,
			args: []string{
				"api", "repos/" + repo + "/contents/" + name,
				"-H", "Accept: application/vnd.github.raw+json",
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, upstream.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("downloading %s: %w", name, err)
		}
		if strings.TrimSpace(string(out)) != "" {
			files[name] = string(out)
		}
	}
	return files, nil
}

// matchManifests returns the names of file entries matching ManifestPatterns,
// in pattern order.
func matchManifests(entries []contentEntry) []string {
	var names []string
	seen := make(map[string]bool)
	for _, pattern := range ManifestPatterns {
		for _, e := range entries {
			if e.Type != "file" || seen[e.Name] {
				continue
			}
			if ok, _ := path.Match(pattern, e.Name); ok {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		}
	}
	return names
}

// Issues lists up to limit open issues, newest first.
func (c *Client) Issues(ctx context.Context, repo string, limit int) ([]Issue, error) {
	fetch := max(limit, MinIssueFetch)
	var raw []ghIssue
	err := c.execJSON(ctx, cmdConfig{
		operation: "issue-list",
		repo:      repo,
		args: []string{
			"issue", "list", "-R", repo,
			"--limit", strconv.Itoa(fetch),
			"--json", issueFields,
		},
	}, &raw)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	issues := make([]Issue, 0, len(raw))
	for _, i := range raw {
		issues = append(issues, i.normalize())
	}
	return issues, nil
}

// IssueDetail returns issue number with comments. Numbers that belong to a
// pull request are looked up with gh pr view.
func (c *Client) IssueDetail(ctx context.Context, repo string, number int) (IssueDetail, error) {
	n := strconv.Itoa(number)
	var raw ghIssue
	issueErr := c.execJSON(ctx, cmdConfig{
		operation: "issue-view",
		repo:      repo,
		args:      []string{"issue", "view", n, "-R", repo, "--json", viewFields},
	}, &raw)
	if issueErr == nil {
		return raw.detail(false), nil
	}
	if ctx.Err() != nil || errors.Is(issueErr, upstream.ErrToolMissing) {
		return IssueDetail{}, issueErr
	}

	raw = ghIssue{}
	prErr := c.execJSON(ctx, cmdConfig{
		operation: "pr-view",
		repo:      repo,
		args:      []string{"pr", "view", n, "-R", repo, "--json", viewFields},
	}, &raw)
	if prErr != nil {
		return IssueDetail{}, errors.Join(issueErr, prErr)
	}
	return raw.detail(true), nil
}
