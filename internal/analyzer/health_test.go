package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/ghtrend/internal/upstream/rest"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestWeightsSumTo100(t *testing.T) {
	var sum int
	for _, w := range Weights {
		sum += w
	}
	assert.Equal(t, 100, sum)
}

func TestGrade(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{100, "A"}, {85, "A"}, {84, "B"}, {70, "B"}, {69, "C"},
		{55, "C"}, {54, "D"}, {40, "D"}, {39, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.total), "total %d", tt.total)
	}
}

func TestScore_HealthyRepo(t *testing.T) {
	readme := "# Rocket\n![build](badge.svg)\n## Install\n## Usage\n" + strings.Repeat("x", 2100)
	s := rest.Signals{
		Repo:          "acme/rocket",
		Stars:         25000,
		OpenIssues:    5,
		License:       "MIT",
		LatestCommit:  now.Add(-48 * time.Hour),
		IssueComments: []int{1, 2, 3, 4, 5},
		Pulls: []rest.PullSignal{
			{State: "closed", Merged: true},
			{State: "closed", Merged: true},
			{State: "open"},
		},
		Readme: readme,
	}

	r := Score(s, now)
	assert.Equal(t, 100, r.Total)
	assert.Equal(t, "A", r.Grade)
	require.Len(t, r.Metrics, len(Weights))

	m, ok := r.Metric(MetricRecentCommits)
	require.True(t, ok)
	assert.Equal(t, "Active (2d ago)", m.Note)

	m, _ = r.Metric(MetricStars)
	assert.Equal(t, "25,000 stars", m.Note)
	assert.Equal(t, "Active (2d ago)", r.Highlight())
}

func TestScore_NeglectedRepo(t *testing.T) {
	s := rest.Signals{
		Repo:          "acme/old",
		Stars:         50,
		OpenIssues:    800,
		Archived:      true,
		LatestCommit:  now.Add(-400 * 24 * time.Hour),
		IssueComments: []int{0, 0, 0, 1},
		Pulls:         []rest.PullSignal{{State: "closed"}, {State: "closed"}},
	}

	r := Score(s, now)
	// 0 commits, 0 readme, 5 issue response (25%), 0 merge, 0 license, 0 open issues, 2 stars, 0 archived
	assert.Equal(t, 7, r.Total)
	assert.Equal(t, "F", r.Grade)
	assert.Equal(t, "Archived", r.Highlight())

	m, _ := r.Metric(MetricLowOpenIssues)
	assert.Equal(t, "800 open (overloaded)", m.Note)
}

func TestScoreRecentCommits(t *testing.T) {
	tests := []struct {
		age   time.Duration
		score int
	}{
		{6 * 24 * time.Hour, 20},
		{7 * 24 * time.Hour, 15},
		{29 * 24 * time.Hour, 15},
		{60 * 24 * time.Hour, 10},
		{120 * 24 * time.Hour, 5},
		{200 * 24 * time.Hour, 0},
	}
	for _, tt := range tests {
		score, _ := scoreRecentCommits(now.Add(-tt.age), now)
		assert.Equal(t, tt.score, score, "age %s", tt.age)
	}
	score, note := scoreRecentCommits(time.Time{}, now)
	assert.Equal(t, 0, score)
	assert.Equal(t, "No commits found", note)
}

func TestScoreReadme(t *testing.T) {
	score, note := scoreReadme("")
	assert.Equal(t, 0, score)
	assert.Equal(t, "No README", note)

	score, note = scoreReadme("# tiny")
	assert.Equal(t, 0, score)
	assert.Equal(t, "minimal", note)

	score, note = scoreReadme(strings.Repeat("a", 600) + " pip install rocket")
	assert.Equal(t, 7, score)
	assert.Equal(t, "basic, install docs", note)
}

func TestScorePRMergeRate(t *testing.T) {
	score, note := scorePRMergeRate(nil)
	assert.Equal(t, 10, score)
	assert.Equal(t, "No PRs", note)

	score, note = scorePRMergeRate([]rest.PullSignal{{State: "open"}})
	assert.Equal(t, 10, score)
	assert.Equal(t, "All PRs open", note)

	score, note = scorePRMergeRate([]rest.PullSignal{
		{State: "closed", Merged: true}, {State: "closed", Merged: true}, {State: "closed"},
	})
	assert.Equal(t, 10, score)
	assert.Equal(t, "66% merged", note)
}

func TestSortReports(t *testing.T) {
	reports := []Report{
		{Repo: "err", Error: "repo not found"},
		{Repo: "low", Total: 30},
		{Repo: "high", Total: 90},
		{Repo: "mid", Total: 60},
	}
	SortReports(reports)

	var order []string
	for _, r := range reports {
		order = append(order, r.Repo)
	}
	assert.Equal(t, []string{"high", "mid", "low", "err"}, order)
	assert.Equal(t, "Error: repo not found", reports[3].Highlight())
}
