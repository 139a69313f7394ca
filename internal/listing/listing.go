// Package listing filters, sorts and trims trending repositories for display,
// and resolves the 1-based ranks users pass to evaluation and clone commands.
//
// Rank N always refers to the Nth row of the list as displayed, after
// filtering, sorting and --top.
package listing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rshade/ghtrend/internal/upstream/trending"
)

// Sort fields.
const (
	SortNone  = ""
	SortStars = "stars"
	SortName  = "name"
)

// DefaultTop is the number of rows shown when --top is not given.
const DefaultTop = 10

// Validation errors.
var (
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidStars     = errors.New("invalid star range")
	ErrInvalidTop       = errors.New("top must be positive")
)

// Options selects and orders rows.
type Options struct {
	// MinStars drops rows with fewer stars.
	MinStars int
	// MaxStars drops rows with more stars; zero disables the bound.
	MaxStars int
	// Search keeps rows whose full name or description contains it,
	// ignoring case.
	Search string
	// Sort is SortNone (trending order), SortStars or SortName.
	Sort string
	// Reverse flips the sort direction. Stars sort descending by default,
	// names ascending.
	Reverse bool
	// Top caps the number of rows; zero keeps all.
	Top int
}

// Validate checks the options for contradictions.
func (o Options) Validate() error {
	if !ValidSortField(o.Sort) {
		return fmt.Errorf("%w: %q (must be %s)", ErrInvalidSortField, o.Sort, strings.Join(SortFields(), " or "))
	}
	if o.MinStars < 0 || o.MaxStars < 0 {
		return fmt.Errorf("%w: star bounds cannot be negative", ErrInvalidStars)
	}
	if o.MaxStars > 0 && o.MaxStars < o.MinStars {
		return fmt.Errorf("%w: --max-stars %d is below --min-stars %d", ErrInvalidStars, o.MaxStars, o.MinStars)
	}
	if o.Top < 0 {
		return ErrInvalidTop
	}
	return nil
}

// SortFields returns the accepted sort field names.
func SortFields() []string {
	return []string{SortStars, SortName}
}

// ValidSortField reports whether field is accepted. The empty field keeps
// trending order.
func ValidSortField(field string) bool {
	switch field {
	case SortNone, SortStars, SortName:
		return true
	}
	return false
}

// Apply filters, sorts and trims repos. The input slice is not modified.
func Apply(repos []trending.Repo, o Options) []trending.Repo {
	out := Filter(repos, o)
	out = Sort(out, o.Sort, o.Reverse)
	if o.Top > 0 && len(out) > o.Top {
		out = out[:o.Top]
	}
	return out
}

// Filter returns the repos that pass the star bounds and search term.
func Filter(repos []trending.Repo, o Options) []trending.Repo {
	search := strings.ToLower(strings.TrimSpace(o.Search))
	out := make([]trending.Repo, 0, len(repos))
	for _, r := range repos {
		if r.Stars < o.MinStars {
			continue
		}
		if o.MaxStars > 0 && r.Stars > o.MaxStars {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.FullName()), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort returns a stably sorted copy of repos. SortNone returns a copy in
// trending order.
func Sort(repos []trending.Repo, field string, reverse bool) []trending.Repo {
	sorted := make([]trending.Repo, len(repos))
	copy(sorted, repos)

	switch field {
	case SortStars:
		sort.SliceStable(sorted, func(i, j int) bool {
			if reverse {
				return sorted[i].Stars < sorted[j].Stars
			}
			return sorted[i].Stars > sorted[j].Stars
		})
	case SortName:
		sort.SliceStable(sorted, func(i, j int) bool {
			a, b := strings.ToLower(sorted[i].FullName()), strings.ToLower(sorted[j].FullName())
			if reverse {
				return a > b
			}
			return a < b
		})
	}
	return sorted
}
