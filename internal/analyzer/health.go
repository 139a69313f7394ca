// Package analyzer turns repository health signals into a 0-100 score and a
// letter grade. Scoring is pure: the same signals and clock always produce the
// same report.
package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rshade/ghtrend/internal/upstream/rest"
)

// Metric keys in report order.
const (
	MetricRecentCommits = "recent_commits"
	MetricReadme        = "readme_quality"
	MetricIssueResponse = "issue_response"
	MetricPRMergeRate   = "pr_merge_rate"
	MetricLicense       = "has_license"
	MetricLowOpenIssues = "low_open_issues"
	MetricStars         = "stars_velocity"
	MetricNotArchived   = "not_archived"
)

// Weights is the maximum score per metric. They sum to 100.
var Weights = map[string]int{
	MetricRecentCommits: 20,
	MetricReadme:        15,
	MetricIssueResponse: 15,
	MetricPRMergeRate:   15,
	MetricLicense:       5,
	MetricLowOpenIssues: 10,
	MetricStars:         10,
	MetricNotArchived:   10,
}

var metricLabels = map[string]string{
	MetricRecentCommits: "Recent Commits",
	MetricReadme:        "Readme Quality",
	MetricIssueResponse: "Issue Response",
	MetricPRMergeRate:   "PR Merge Rate",
	MetricLicense:       "License",
	MetricLowOpenIssues: "Low Open Issues",
	MetricStars:         "Stars",
	MetricNotArchived:   "Not Archived",
}

// Metric is one scored dimension.
type Metric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Score int    `json:"score"`
	Max   int    `json:"max"`
	Note  string `json:"note"`
}

// Report is the scored result for one repository. Error is set instead of
// the score when the repository could not be analyzed.
type Report struct {
	Repo        string   `json:"repo"`
	Total       int      `json:"total"`
	Grade       string   `json:"grade"`
	Metrics     []Metric `json:"metrics"`
	Description string   `json:"description,omitempty"`
	Stars       int      `json:"stars"`
	Language    string   `json:"language,omitempty"`
	URL         string   `json:"url,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Failed reports whether the repository could not be analyzed.
func (r Report) Failed() bool { return r.Error != "" }

// Metric returns the metric with key, if present.
func (r Report) Metric(key string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// Highlight picks the most useful one-line note for a summary table.
func (r Report) Highlight() string {
	if r.Failed() {
		return "Error: " + r.Error
	}
	if m, ok := r.Metric(MetricNotArchived); ok && m.Score == 0 {
		return "Archived"
	}
	if m, ok := r.Metric(MetricReadme); ok && m.Score == 0 {
		return "Missing docs"
	}
	m, _ := r.Metric(MetricRecentCommits)
	return m.Note
}

// Score computes the report for s as of now.
func Score(s rest.Signals, now time.Time) Report {
	r := Report{
		Repo:        s.Repo,
		Description: s.Description,
		Stars:       s.Stars,
		Language:    s.Language,
		URL:         s.HTMLURL,
	}
	add := func(key string, score int, note string) {
		r.Metrics = append(r.Metrics, Metric{
			Key:   key,
			Label: metricLabels[key],
			Score: score,
			Max:   Weights[key],
			Note:  note,
		})
		r.Total += score
	}

	score, note := scoreRecentCommits(s.LatestCommit, now)
	add(MetricRecentCommits, score, note)
	score, note = scoreReadme(s.Readme)
	add(MetricReadme, score, note)
	score, note = scoreIssueResponse(s.IssueComments)
	add(MetricIssueResponse, score, note)
	score, note = scorePRMergeRate(s.Pulls)
	add(MetricPRMergeRate, score, note)

	if s.License != "" {
		add(MetricLicense, Weights[MetricLicense], s.License)
	} else {
		add(MetricLicense, 0, "None")
	}
	score, note = scoreOpenIssues(s.OpenIssues)
	add(MetricLowOpenIssues, score, note)
	score, note = scoreStars(s.Stars)
	add(MetricStars, score, note)
	if s.Archived {
		add(MetricNotArchived, 0, "Archived")
	} else {
		add(MetricNotArchived, Weights[MetricNotArchived], "Active")
	}

	r.Grade = Grade(r.Total)
	return r
}

// Grade maps a total score to a letter.
func Grade(total int) string {
	switch {
	case total >= 85:
		return "A"
	case total >= 70:
		return "B"
	case total >= 55:
		return "C"
	case total >= 40:
		return "D"
	default:
		return "F"
	}
}

// SortReports orders reports by total, highest first. Failed reports sort last.
func SortReports(reports []Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Failed() != reports[j].Failed() {
			return !reports[i].Failed()
		}
		return reports[i].Total > reports[j].Total
	})
}

func scoreRecentCommits(latest, now time.Time) (int, string) {
	if latest.IsZero() {
		return 0, "No commits found"
	}
	days := int(now.Sub(latest).Hours() / 24)
	switch {
	case days < 7:
		return 20, fmt.Sprintf("Active (%dd ago)", days)
	case days < 30:
		return 15, fmt.Sprintf("Recent (%dd ago)", days)
	case days < 90:
		return 10, fmt.Sprintf("Moderate (%dd ago)", days)
	case days < 180:
		return 5, fmt.Sprintf("Stale (%dd ago)", days)
	default:
		return 0, fmt.Sprintf("Inactive (%dd ago)", days)
	}
}

var (
	installWords = []string{"install", "npm", "pip", "cargo", "setup"}
	usageWords   = []string{"usage", "example", "getting started", "quick start"}
)

func scoreReadme(readme string) (int, string) {
	if readme == "" {
		return 0, "No README"
	}
	lower := strings.ToLower(readme)

	var score int
	var notes []string
	switch n := len(readme); {
	case n > 2000:
		score += 5
		notes = append(notes, "detailed")
	case n > 500:
		score += 3
		notes = append(notes, "basic")
	default:
		notes = append(notes, "minimal")
	}
	if containsAny(lower, installWords) {
		score += 4
		notes = append(notes, "install docs")
	}
	if containsAny(lower, usageWords) {
		score += 4
		notes = append(notes, "usage docs")
	}
	if strings.Contains(readme, "![") {
		score += 2
	}
	return min(score, Weights[MetricReadme]), strings.Join(notes, ", ")
}

func scoreIssueResponse(comments []int) (int, string) {
	if len(comments) == 0 {
		return 15, "No open issues"
	}
	var responded int
	for _, c := range comments {
		if c > 0 {
			responded++
		}
	}
	rate := float64(responded) / float64(len(comments))
	pct := fmt.Sprintf("%d%% responded", int(rate*100))
	switch {
	case rate > 0.8:
		return 15, pct
	case rate > 0.5:
		return 10, pct
	case rate > 0.2:
		return 5, pct
	default:
		return 0, "Low response rate"
	}
}

func scorePRMergeRate(pulls []rest.PullSignal) (int, string) {
	if len(pulls) == 0 {
		return 10, "No PRs"
	}
	var merged, closed int
	for _, p := range pulls {
		if p.Merged {
			merged++
		}
		if p.State == "closed" {
			closed++
		}
	}
	if closed == 0 {
		return 10, "All PRs open"
	}
	rate := float64(merged) / float64(closed)
	pct := fmt.Sprintf("%d%% merged", int(rate*100))
	switch {
	case rate > 0.7:
		return 15, pct
	case rate > 0.5:
		return 10, pct
	case rate > 0.3:
		return 5, pct
	default:
		return 0, "Low merge rate"
	}
}

func scoreOpenIssues(open int) (int, string) {
	note := fmt.Sprintf("%d open", open)
	switch {
	case open < 20:
		return 10, note
	case open < 100:
		return 7, note
	case open < 500:
		return 3, note
	default:
		return 0, note + " (overloaded)"
	}
}

func scoreStars(stars int) (int, string) {
	note := humanize.Comma(int64(stars)) + " stars"
	switch {
	case stars > 10000:
		return 10, note
	case stars > 1000:
		return 7, note
	case stars > 100:
		return 4, note
	default:
		return 2, note
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
