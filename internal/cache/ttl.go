package cache

import (
	"fmt"
	"strconv"
	"time"
)

// TTL bounds.
const (
	// MinTTL is the smallest TTL accepted from configuration.
	MinTTL = time.Minute

	// MaxTTL is the largest TTL accepted from configuration (7 days).
	MaxTTL = 7 * 24 * time.Hour

	// minutesPerHour is used for duration formatting calculations.
	minutesPerHour = 60

	// hoursPerDay is used for duration formatting calculations.
	hoursPerDay = 24
)

// ErrInvalidTTL is returned when a configured TTL is outside [MinTTL, MaxTTL].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %s and %s", FormatDuration(MinTTL), FormatDuration(MaxTTL))

var defaultTTLs = map[Category]time.Duration{
	CategoryTrending: time.Hour,
	CategoryRepoInfo: 24 * time.Hour,
	CategoryReadme:   24 * time.Hour,
	CategoryTree:     24 * time.Hour,
	CategoryDeps:     24 * time.Hour,
	CategoryIssues:   30 * time.Minute,
	CategoryIssue:    30 * time.Minute,
	CategoryHealth:   24 * time.Hour,
}

// TTLTable maps each category to its time-to-live.
type TTLTable map[Category]time.Duration

// DefaultTTLTable returns a fresh copy of the built-in TTLs.
func DefaultTTLTable() TTLTable {
	t := make(TTLTable, len(defaultTTLs))
	for c, d := range defaultTTLs {
		t[c] = d
	}
	return t
}

// Lookup returns the TTL for c.
func (t TTLTable) Lookup(c Category) (time.Duration, bool) {
	d, ok := t[c]
	return d, ok
}

// WithOverrides returns a copy of t with the given per-category TTLs applied.
// Unknown category names and out-of-range durations are rejected.
func (t TTLTable) WithOverrides(overrides map[string]time.Duration) (TTLTable, error) {
	out := make(TTLTable, len(t))
	for c, d := range t {
		out[c] = d
	}
	for name, d := range overrides {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if d < MinTTL || d > MaxTTL {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidTTL, name, d)
		}
		out[c] = d
	}
	return out, nil
}

// Policy decides whether a stored record is still fresh.
type Policy struct {
	ttls TTLTable
	now  func() time.Time
}

// NewPolicy creates a Policy over ttls. A nil table uses the defaults.
func NewPolicy(ttls TTLTable) *Policy {
	if ttls == nil {
		ttls = DefaultTTLTable()
	}
	return &Policy{ttls: ttls, now: time.Now}
}

// WithClock replaces the policy's clock. Intended for tests.
func (p *Policy) WithClock(now func() time.Time) *Policy {
	p.now = now
	return p
}

// TTL returns the TTL for c.
func (p *Policy) TTL(c Category) (time.Duration, bool) {
	return p.ttls.Lookup(c)
}

// IsFresh reports whether now - r.StoredAt < TTL[r.Category].
// A record whose category has no TTL is never fresh.
func (p *Policy) IsFresh(r *Record) bool {
	if r == nil {
		return false
	}
	ttl, ok := p.ttls.Lookup(r.Category)
	if !ok {
		return false
	}
	return p.now().Sub(r.StoredAt) < ttl
}

// Age returns how long ago r was stored.
func (p *Policy) Age(r *Record) time.Duration {
	return p.now().Sub(r.StoredAt)
}

// ExpiresIn returns the time until r goes stale, or 0 if it already has.
func (p *Policy) ExpiresIn(r *Record) time.Duration {
	ttl, ok := p.ttls.Lookup(r.Category)
	if !ok {
		return 0
	}
	remaining := ttl - p.Age(r)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatDuration formats a duration in a human-readable way.
// Examples: "1h", "30m", "5m30s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

// ParseTTL parses a TTL string in various formats:
// - Integer seconds: "3600".
// - Duration string: "1h", "30m", "1h30m".
func ParseTTL(s string) (time.Duration, error) {
	var d time.Duration
	if seconds, err := strconv.Atoi(s); err == nil {
		d = time.Duration(seconds) * time.Second
	} else {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return 0, fmt.Errorf("invalid TTL format: %w", perr)
		}
		d = parsed
	}

	if d < MinTTL || d > MaxTTL {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}
	return d, nil
}
