// Package trending fetches the GitHub trending listing from two sources: the
// JSON snapshots published by the github-trending-api project, and the public
// github.com/trending page as a fallback. Both produce the same Listing.
package trending

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Time windows accepted by both sources.
const (
	SinceDaily   = "daily"
	SinceWeekly  = "weekly"
	SinceMonthly = "monthly"
)

// LanguageAll selects every language.
const LanguageAll = "all"

// Source names recorded on a Listing.
const (
	SourceAPI     = "api"
	SourceScraper = "scraper"
)

// Languages is the list offered by the languages command. Any other slug is
// still passed through to the sources.
var Languages = []string{
	"all", "python", "javascript", "typescript", "rust", "go", "java",
	"c++", "c", "c#", "ruby", "php", "swift", "kotlin", "scala",
	"r", "julia", "dart", "lua", "shell", "powershell", "html", "css",
}

// ValidSince reports whether s is a supported time window.
func ValidSince(s string) bool {
	switch s {
	case SinceDaily, SinceWeekly, SinceMonthly:
		return true
	}
	return false
}

// Repo is one trending repository.
type Repo struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	StarsToday  int    `json:"stars_today"`
	URL         string `json:"url"`
}

// FullName returns "owner/name".
func (r Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// CloneURL returns the HTTPS clone URL.
func (r Repo) CloneURL() string {
	return "https://github.com/" + r.FullName() + ".git"
}

// Listing is the ordered trending list for one (since, language) pair.
type Listing struct {
	Since    string `json:"since"`
	Language string `json:"language"`
	PubDate  string `json:"pub_date"`
	Source   string `json:"source"`
	Repos    []Repo `json:"repos"`
}

// SplitFullName parses "owner/name", tolerating spaces around the slash and
// leading or trailing slashes.
func SplitFullName(s string) (owner, name string, err error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "/"), "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repository name %q: expected owner/name", s)
	}
	owner, name = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository name %q: expected owner/name", s)
	}
	return owner, name, nil
}

// ParseCount parses a star count such as "12,345", "1.2k" or "".
// Empty or unparseable input yields 0.
func ParseCount(s string) int {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, ",", "")))
	if s == "" {
		return 0
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult, s = 1_000, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "m")
	}

	if n, err := strconv.Atoi(s); err == nil {
		return int(float64(n) * mult)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(math.Round(f * mult))
	}
	return 0
}

// count decodes JSON numbers and numeric strings alike.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		if i, convErr := n.Int64(); convErr == nil {
			*c = count(i)
			return nil
		}
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null and other shapes decode as zero.
		*c = 0
		return nil //nolint:nilerr
	}
	*c = count(ParseCount(s))
	return nil
}
