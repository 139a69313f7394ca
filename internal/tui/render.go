package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/ghtrend/internal/analyzer"
	"github.com/rshade/ghtrend/internal/cache"
	"github.com/rshade/ghtrend/internal/clones"
	"github.com/rshade/ghtrend/internal/upstream/gh"
	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// Display limits.
const (
	ruleWidth         = 60
	wideRuleWidth     = 70
	descriptionMax    = 100
	issueTitleMax     = 60
	issueBodyMax      = 5000
	commentBodyMax    = 200
	commentsShown     = 5
	labelsShown       = 3
	topicsShown       = 8
	depsLinesFull     = 50
	depsLinesShown    = 40
	bigFileBytes      = 100_000
	barWidth          = 10
	analysisRepoWidth = 33
	analysisNoteWidth = 25

	// TreeMaxItems is how many tree entries are printed before eliding.
	TreeMaxItems = 50
)

// Printer writes styled, human-oriented output. Styling is dropped when
// color is off; content is identical either way.
type Printer struct {
	w     io.Writer
	color bool
	num   *message.Printer
	now   func() time.Time
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{
		w:     w,
		color: color,
		num:   message.NewPrinter(language.English),
		now:   time.Now,
	}
}

// WithClock overrides the clock used for relative times.
func (p *Printer) WithClock(now func() time.Time) *Printer {
	p.now = now
	return p
}

// Color reports whether styling is on.
func (p *Printer) Color() bool { return p.color }

func (p *Printer) paint(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *Printer) rule(sb *strings.Builder, width int) {
	sb.WriteString(p.paint(RuleStyle, strings.Repeat("=", width)))
	sb.WriteString("\n")
}

func (p *Printer) flush(sb *strings.Builder) error {
	_, err := io.WriteString(p.w, sb.String())
	return err
}

// Number formats n with thousands separators.
func (p *Printer) Number(n int) string {
	return p.num.Sprintf("%d", n)
}

// Header prints the listing banner.
func (p *Printer) Header(since, lang string) error {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(p.paint(TitleStyle, fmt.Sprintf("GitHub Trending - %s (%s)", since, lang)))
	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	return p.flush(&sb)
}

// Repos prints the ranked repository list. verbose adds URLs.
func (p *Printer) Repos(repos []trending.Repo, verbose bool) error {
	var sb strings.Builder
	if len(repos) == 0 {
		sb.WriteString("No repositories found matching your criteria.\n")
		return p.flush(&sb)
	}
	for i, r := range repos {
		fmt.Fprintf(&sb, "\n%s %s\n", p.paint(RankStyle, fmt.Sprintf("%d.", i+1)), p.paint(ValueStyle, r.FullName()))

		line := fmt.Sprintf("   %s %s", IconStar, p.Number(r.Stars))
		if r.StarsToday > 0 {
			line += fmt.Sprintf(" (+%s today)", p.Number(r.StarsToday))
		}
		if r.Language != "" {
			line += " " + p.paint(LangStyle, "["+r.Language+"]")
		}
		sb.WriteString(line + "\n")

		if r.Description != "" {
			sb.WriteString("   " + p.paint(SubtleStyle, truncate(r.Description, descriptionMax)) + "\n")
		}
		if verbose {
			url := r.URL
			if url == "" {
				url = "https://github.com/" + r.FullName()
			}
			sb.WriteString("   " + p.paint(LinkStyle, IconLink+" "+url) + "\n")
		}
	}
	return p.flush(&sb)
}

// Footer prints the publication date and row count.
func (p *Printer) Footer(pubDate string, shown int) error {
	var sb strings.Builder
	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	if pubDate == "" {
		pubDate = "Unknown"
	}
	fmt.Fprintf(&sb, "Updated: %s\n", pubDate)
	fmt.Fprintf(&sb, "Showing %d repositories\n", shown)
	return p.flush(&sb)
}

// StaleNotice warns that data came from an expired cache record.
func (p *Printer) StaleNotice(what string, storedAt time.Time, cause error) error {
	var sb strings.Builder
	msg := fmt.Sprintf("%s %s served from stale cache (stored %s)", IconWarn, what, humanize.RelTime(storedAt, p.now(), "ago", "from now"))
	if cause != nil {
		msg += ": " + cause.Error()
	}
	sb.WriteString(p.paint(WarningStyle, msg) + "\n")
	return p.flush(&sb)
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) error {
	var sb strings.Builder
	sb.WriteString(p.paint(OKStyle, IconOK+" "+fmt.Sprintf(format, args...)) + "\n")
	return p.flush(&sb)
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) error {
	var sb strings.Builder
	sb.WriteString(p.paint(WarningStyle, IconWarn+" "+fmt.Sprintf(format, args...)) + "\n")
	return p.flush(&sb)
}

// Fail prints an error line.
func (p *Printer) Fail(format string, args ...any) error {
	var sb strings.Builder
	sb.WriteString(p.paint(ErrorStyle, IconCross+" "+fmt.Sprintf(format, args...)) + "\n")
	return p.flush(&sb)
}

// RepoInfo prints repository metadata.
func (p *Printer) RepoInfo(info gh.RepoInfo) error {
	var sb strings.Builder
	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	sb.WriteString(p.paint(TitleStyle, "Repository Info: "+info.FullName) + "\n")
	p.rule(&sb, ruleWidth)

	field := func(label, value string) {
		sb.WriteString("  " + p.paint(LabelStyle, fmt.Sprintf("%-13s", label+":")) + " " + value + "\n")
	}
	if info.Description != "" {
		sb.WriteString("  " + p.paint(SubtleStyle, info.Description) + "\n\n")
	}
	field("Stars", p.Number(info.Stars))
	field("Forks", p.Number(info.Forks))
	field("Watchers", p.Number(info.Watchers))
	field("Open Issues", p.Number(info.OpenIssues))
	field("Language", orDefault(info.Language, "Unknown"))
	field("License", orDefault(info.License, "None"))
	field("Branch", orDefault(info.DefaultBranch, "main"))
	lastPush := "Unknown"
	if !info.PushedAt.IsZero() {
		lastPush = humanize.RelTime(info.PushedAt, p.now(), "ago", "from now")
	}
	field("Last Push", lastPush)
	if info.Archived {
		field("Status", p.paint(WarningStyle, "ARCHIVED"))
	}
	if info.Fork {
		field("Fork", "yes")
	}
	if info.Homepage != "" {
		field("Homepage", info.Homepage)
	}
	if len(info.Topics) > 0 {
		topics := info.Topics
		if len(topics) > topicsShown {
			topics = topics[:topicsShown]
		}
		field("Topics", strings.Join(topics, ", "))
	}
	url := info.HTMLURL
	if url == "" {
		url = "https://github.com/" + info.FullName
	}
	field("URL", p.paint(LinkStyle, url))
	p.rule(&sb, ruleWidth)
	return p.flush(&sb)
}

// Tree prints a file tree, eliding after TreeMaxItems entries.
func (p *Printer) Tree(t gh.Tree) error {
	var sb strings.Builder
	if t.Total == 0 {
		sb.WriteString(IconFolder + " Repository is empty\n")
		return p.flush(&sb)
	}
	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	sb.WriteString(p.paint(TitleStyle, fmt.Sprintf("File Tree: %s (%s)", t.Repo, t.Branch)) + "\n")
	p.rule(&sb, ruleWidth)

	for i, e := range t.Entries {
		if i >= TreeMaxItems {
			fmt.Fprintf(&sb, "  ... and %d more items\n", len(t.Entries)-i)
			break
		}
		indent := strings.Repeat("  ", e.Depth()+1)
		if e.IsDir() {
			sb.WriteString(indent + IconFolder + " " + p.paint(ValueStyle, e.Name()+"/") + "\n")
			continue
		}
		size := ""
		if e.Size > bigFileBytes {
			size = p.paint(SubtleStyle, " ("+humanize.Bytes(uint64(e.Size))+")") //nolint:gosec // Sizes are non-negative.
		}
		sb.WriteString(indent + IconFile + " " + e.Name() + size + "\n")
	}

	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	total := fmt.Sprintf("Total: %s files/folders", p.Number(t.Total))
	if t.Truncated {
		total += " (listing truncated by GitHub)"
	}
	sb.WriteString(total + "\n")
	return p.flush(&sb)
}

// Readme prints README text, keeping at most maxLines lines (0 keeps all).
func (p *Printer) Readme(title, content string, maxLines int) error {
	var sb strings.Builder
	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	sb.WriteString(p.paint(TitleStyle, title) + "\n")
	p.rule(&sb, ruleWidth)
	sb.WriteString("\n")

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	truncated := maxLines > 0 && len(lines) > maxLines
	if truncated {
		lines = lines[:maxLines]
	}
	for _, l := range lines {
		sb.WriteString(l + "\n")
	}
	if truncated {
		sb.WriteString(p.paint(SubtleStyle, fmt.Sprintf("\n... (truncated, showing first %d lines)", maxLines)) + "\n")
	}
	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	return p.flush(&sb)
}

// Deps prints dependency manifests in file name order.
func (p *Printer) Deps(repo string, files map[string]string) error {
	var sb strings.Builder
	if len(files) == 0 {
		fmt.Fprintf(&sb, "%s No dependency files found in %s\n", IconPackage, repo)
		fmt.Fprintf(&sb, "   Checked: %s...\n", strings.Join(gh.ManifestPatterns[:5], ", "))
		return p.flush(&sb)
	}

	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	sb.WriteString(p.paint(TitleStyle, "Dependencies: "+repo) + "\n")
	p.rule(&sb, ruleWidth)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sb.WriteString("\n" + IconFile + " " + p.paint(ValueStyle, name) + "\n")
		sb.WriteString(p.paint(RuleStyle, strings.Repeat("-", 40)) + "\n")
		lines := strings.Split(strings.TrimSpace(files[name]), "\n")
		shown := lines
		if len(lines) > depsLinesFull {
			shown = lines[:depsLinesShown]
		}
		for _, l := range shown {
			sb.WriteString("  " + l + "\n")
		}
		if len(shown) < len(lines) {
			fmt.Fprintf(&sb, "  ... (%d more lines)\n", len(lines)-len(shown))
		}
	}

	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	fmt.Fprintf(&sb, "Found %d dependency file(s)\n", len(files))
	return p.flush(&sb)
}

// Issues prints an issue list.
func (p *Printer) Issues(repo string, issues []gh.Issue) error {
	var sb strings.Builder
	if len(issues) == 0 {
		fmt.Fprintf(&sb, "%s No issues found in %s\n", IconIssue, repo)
		return p.flush(&sb)
	}

	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	sb.WriteString(p.paint(TitleStyle, "Recent Issues: "+repo) + "\n")
	p.rule(&sb, ruleWidth)

	for _, is := range issues {
		icon := IconClosed
		if is.State == "open" {
			icon = IconOpen
		}
		fmt.Fprintf(&sb, "\n%s #%d: %s\n", icon, is.Number, truncate(is.Title, issueTitleMax))
		meta := fmt.Sprintf("   Author: %s | State: %s", orDefault(is.Author, "unknown"), is.State)
		if len(is.Labels) > 0 {
			labels := is.Labels
			if len(labels) > labelsShown {
				labels = labels[:labelsShown]
			}
			meta += " [" + strings.Join(labels, ", ") + "]"
		}
		sb.WriteString(p.paint(SubtleStyle, meta) + "\n")
	}

	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	fmt.Fprintf(&sb, "Showing %d issue(s)\n", len(issues))
	return p.flush(&sb)
}

// Issue prints one issue or pull request with its first comments.
func (p *Printer) Issue(repo string, d gh.IssueDetail) error {
	var sb strings.Builder
	kind := "Issue"
	if d.IsPullRequest {
		kind = "Pull Request"
	}

	sb.WriteString("\n")
	p.rule(&sb, wideRuleWidth)
	sb.WriteString(p.paint(TitleStyle, fmt.Sprintf("%s #%d: %s", kind, d.Number, d.Title)) + "\n")
	p.rule(&sb, wideRuleWidth)

	field := func(label, value string) {
		sb.WriteString("   " + p.paint(LabelStyle, fmt.Sprintf("%-8s", label+":")) + " " + value + "\n")
	}
	field("Repo", repo)
	field("State", strings.ToUpper(d.State))
	field("Author", orDefault(d.Author, "unknown"))
	if !d.CreatedAt.IsZero() {
		field("Created", d.CreatedAt.Format(time.DateOnly))
	}
	if len(d.Labels) > 0 {
		field("Labels", strings.Join(d.Labels, ", "))
	}
	field("URL", p.paint(LinkStyle, d.URL))

	sb.WriteString("\n" + p.paint(RuleStyle, strings.Repeat("-", wideRuleWidth)) + "\nDescription:\n")
	switch {
	case d.Body == "":
		sb.WriteString("(No description)\n")
	case len(d.Body) > issueBodyMax:
		sb.WriteString(d.Body[:issueBodyMax] + "\n")
		fmt.Fprintf(&sb, "\n... (truncated, %d more characters)\n", len(d.Body)-issueBodyMax)
	default:
		sb.WriteString(d.Body + "\n")
	}

	if len(d.Comments) > 0 {
		sb.WriteString("\n" + p.paint(RuleStyle, strings.Repeat("-", wideRuleWidth)) + "\n")
		fmt.Fprintf(&sb, "Comments (%d):\n", len(d.Comments))
		for i, c := range d.Comments {
			if i >= commentsShown {
				fmt.Fprintf(&sb, "\n  ... and %d more comments\n", len(d.Comments)-commentsShown)
				break
			}
			fmt.Fprintf(&sb, "\n  [%s]:\n  %s\n", p.paint(ValueStyle, orDefault(c.Author, "unknown")), truncate(c.Body, commentBodyMax))
		}
	}
	sb.WriteString("\n")
	p.rule(&sb, wideRuleWidth)
	return p.flush(&sb)
}

// AnalysisTable prints the health summary for several repositories.
func (p *Printer) AnalysisTable(reports []analyzer.Report) error {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		score, grade := "-", "?"
		if !r.Failed() {
			score, grade = fmt.Sprintf("%d", r.Total), r.Grade
		}
		rows = append(rows, []string{
			truncate(r.Repo, analysisRepoWidth),
			score,
			grade,
			truncate(r.Highlight(), analysisNoteWidth),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Repo", "Score", "Grade", "Notes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if !p.color {
				return base
			}
			switch {
			case row == table.HeaderRow:
				return base.Inherit(TitleStyle)
			case col == 2 && row >= 0 && row < len(rows):
				return base.Foreground(gradeColor(rows[row][2])).Bold(true)
			}
			return base
		})
	if p.color {
		t = t.BorderStyle(RuleStyle)
	}

	var sb strings.Builder
	sb.WriteString(p.paint(TitleStyle, "TRENDING DIGEST") + "\n")
	sb.WriteString(t.Render() + "\n")
	return p.flush(&sb)
}

// AnalysisDetail prints the per-metric breakdown for one repository.
func (p *Printer) AnalysisDetail(r analyzer.Report) error {
	var sb strings.Builder
	if r.Failed() {
		sb.WriteString(p.paint(ErrorStyle, fmt.Sprintf("Error analyzing %s: %s", r.Repo, r.Error)) + "\n")
		return p.flush(&sb)
	}

	sb.WriteString("\n")
	p.rule(&sb, ruleWidth)
	sb.WriteString(p.paint(TitleStyle, r.Repo) + "\n")
	p.rule(&sb, ruleWidth)
	if r.Description != "" {
		sb.WriteString("   " + p.paint(SubtleStyle, truncate(r.Description, wideRuleWidth)) + "\n")
	}
	grade := p.paint(lipgloss.NewStyle().Bold(true).Foreground(gradeColor(r.Grade)), r.Grade)
	fmt.Fprintf(&sb, "\n   Grade: %s (%d/100)\n\n", grade, r.Total)

	for _, m := range r.Metrics {
		filled := 0
		if m.Max > 0 {
			filled = m.Score * barWidth / m.Max
		}
		bar := p.paint(OKStyle, strings.Repeat("█", filled)) + p.paint(SubtleStyle, strings.Repeat("░", barWidth-filled))
		fmt.Fprintf(&sb, "   %-20s [%s] %2d/%-2d  %s\n", m.Label, bar, m.Score, m.Max, m.Note)
	}
	sb.WriteString("\n")
	return p.flush(&sb)
}

// Clones prints checked-out repositories.
func (p *Printer) Clones(dir string, list []clones.Checkout) error {
	var sb strings.Builder
	if len(list) == 0 {
		fmt.Fprintf(&sb, "%s No cloned repositories found in %s\n", IconFolder, dir)
		return p.flush(&sb)
	}
	var total int64
	for i, c := range list {
		total += c.Size
		fmt.Fprintf(&sb, "  %2d. %-30s %s - %s\n",
			i+1, c.Name,
			p.paint(SubtleStyle, "("+humanize.Bytes(uint64(c.Size))+")"), //nolint:gosec // Sizes are non-negative.
			c.Slug())
	}
	fmt.Fprintf(&sb, "\n%d repositories, %s total, in %s\n", len(list), humanize.Bytes(uint64(total)), dir) //nolint:gosec // Non-negative.
	return p.flush(&sb)
}

// CacheStats prints a cache summary per category.
func (p *Printer) CacheStats(s cache.Stats, policy *cache.Policy) error {
	var sb strings.Builder
	sb.WriteString(p.paint(TitleStyle, "Cache: "+s.Dir) + "\n")

	rows := make([][]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		ttl := "-"
		if d, ok := policy.TTL(c.Category); ok {
			ttl = cache.FormatDuration(d)
		}
		newest := "-"
		if !c.Newest.IsZero() {
			newest = humanize.RelTime(c.Newest, p.now(), "ago", "from now")
		}
		rows = append(rows, []string{
			c.Category.String(), ttl,
			fmt.Sprintf("%d", c.Entries), fmt.Sprintf("%d", c.Fresh), fmt.Sprintf("%d", c.Stale),
			humanize.Bytes(uint64(c.Bytes)), newest, //nolint:gosec // Non-negative.
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Category", "TTL", "Entries", "Fresh", "Stale", "Size", "Newest").
		Rows(rows...)
	sb.WriteString(t.Render() + "\n")

	summary := fmt.Sprintf("%d entries (%d fresh, %d stale), %s", s.Entries, s.Fresh, s.Stale, humanize.Bytes(uint64(s.Bytes))) //nolint:gosec // Non-negative.
	if s.Corrupt > 0 {
		summary += p.paint(WarningStyle, fmt.Sprintf(", %d unreadable", s.Corrupt))
	}
	sb.WriteString(summary + "\n")
	return p.flush(&sb)
}

// Languages prints the known language slugs.
func (p *Printer) Languages(langs []string) error {
	var sb strings.Builder
	sb.WriteString(p.paint(TitleStyle, "Available languages:") + "\n")
	for _, l := range langs {
		sb.WriteString("  " + l + "\n")
	}
	sb.WriteString(p.paint(SubtleStyle, "Other GitHub language slugs are passed through as-is.") + "\n")
	return p.flush(&sb)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
