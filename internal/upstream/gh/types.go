package gh

import (
	"sort"
	"strings"
	"time"
)

// RepoInfo is the normalized subset of GET /repos/{owner}/{repo}.
type RepoInfo struct {
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	HTMLURL       string    `json:"html_url"`
	CloneURL      string    `json:"clone_url"`
	Homepage      string    `json:"homepage,omitempty"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	Watchers      int       `json:"watchers"`
	OpenIssues    int       `json:"open_issues"`
	Size          int       `json:"size_kb"`
	Language      string    `json:"language"`
	License       string    `json:"license,omitempty"`
	Topics        []string  `json:"topics,omitempty"`
	DefaultBranch string    `json:"default_branch"`
	Fork          bool      `json:"fork"`
	Archived      bool      `json:"archived"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
}

// apiRepo mirrors the REST response fields we read.
type apiRepo struct {
	FullName        string    `json:"full_name"`
	Description     *string   `json:"description"`
	HTMLURL         string    `json:"html_url"`
	CloneURL        string    `json:"clone_url"`
	Homepage        *string   `json:"homepage"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	Subscribers     int       `json:"subscribers_count"`
	Watchers        int       `json:"watchers_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Size            int       `json:"size"`
	Language        *string   `json:"language"`
	Topics          []string  `json:"topics"`
	DefaultBranch   string    `json:"default_branch"`
	Fork            bool      `json:"fork"`
	Archived        bool      `json:"archived"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
	License         *struct {
		SPDXID string `json:"spdx_id"`
		Name   string `json:"name"`
	} `json:"license"`
}

func (r apiRepo) normalize() RepoInfo {
	info := RepoInfo{
		FullName:      r.FullName,
		Description:   deref(r.Description),
		HTMLURL:       r.HTMLURL,
		CloneURL:      r.CloneURL,
		Homepage:      deref(r.Homepage),
		Stars:         r.StargazersCount,
		Forks:         r.ForksCount,
		Watchers:      r.Subscribers,
		OpenIssues:    r.OpenIssuesCount,
		Size:          r.Size,
		Language:      deref(r.Language),
		Topics:        r.Topics,
		DefaultBranch: r.DefaultBranch,
		Fork:          r.Fork,
		Archived:      r.Archived,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		PushedAt:      r.PushedAt,
	}
	if info.Watchers == 0 {
		info.Watchers = r.Watchers
	}
	if r.License != nil {
		info.License = r.License.SPDXID
		if info.License == "" || info.License == "NOASSERTION" {
			info.License = r.License.Name
		}
	}
	return info
}

// Entry types in a git tree.
const (
	EntryBlob = "blob"
	EntryTree = "tree"
)

// TreeEntry is one path in a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
}

// Depth returns the number of directory separators in the path.
func (e TreeEntry) Depth() int {
	return strings.Count(e.Path, "/")
}

// IsDir reports whether the entry is a directory.
func (e TreeEntry) IsDir() bool {
	return e.Type == EntryTree
}

// Name returns the last path element.
func (e TreeEntry) Name() string {
	if i := strings.LastIndex(e.Path, "/"); i >= 0 {
		return e.Path[i+1:]
	}
	return e.Path
}

type apiTree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// FilterTree keeps entries shallower than maxDepth, ordered by depth, then
// directories before files, then path. maxDepth <= 0 keeps everything.
func FilterTree(entries []TreeEntry, maxDepth int) []TreeEntry {
	out := make([]TreeEntry, 0, len(entries))
	for _, e := range entries {
		if maxDepth <= 0 || e.Depth() < maxDepth {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Depth() != b.Depth() {
			return a.Depth() < b.Depth()
		}
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		return a.Path < b.Path
	})
	return out
}

// Issue is one entry from gh issue list.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Author    string    `json:"author"`
	Labels    []string  `json:"labels,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url"`
}

// Comment is one comment on an issue or pull request.
type Comment struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// IssueDetail is a single issue or pull request with its body and comments.
type IssueDetail struct {
	Issue
	Body          string    `json:"body"`
	Comments      []Comment `json:"comments,omitempty"`
	IsPullRequest bool      `json:"is_pull_request"`
}

type ghAuthor struct {
	Login string `json:"login"`
}

type ghLabel struct {
	Name string `json:"name"`
}

type ghIssue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Author    ghAuthor  `json:"author"`
	Labels    []ghLabel `json:"labels"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
	Body      string    `json:"body"`
	Comments  []struct {
		Author    ghAuthor  `json:"author"`
		Body      string    `json:"body"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"comments"`
}

func (i ghIssue) normalize() Issue {
	labels := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.Name)
	}
	return Issue{
		Number:    i.Number,
		Title:     i.Title,
		State:     strings.ToLower(i.State),
		Author:    i.Author.Login,
		Labels:    labels,
		CreatedAt: i.CreatedAt,
		URL:       i.URL,
	}
}

func (i ghIssue) detail(isPR bool) IssueDetail {
	d := IssueDetail{Issue: i.normalize(), Body: i.Body, IsPullRequest: isPR}
	for _, c := range i.Comments {
		d.Comments = append(d.Comments, Comment{Author: c.Author.Login, Body: c.Body, CreatedAt: c.CreatedAt})
	}
	return d
}

// contentEntry is one item of GET /repos/{r}/contents.
type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
