package cache

import (
	"errors"
	"fmt"
	"strings"
)

// Category identifies a kind of cached data. Each category has exactly one TTL.
type Category string

// Known categories.
const (
	CategoryTrending Category = "trending"
	CategoryRepoInfo Category = "repo_info"
	CategoryReadme   Category = "readme"
	CategoryTree     Category = "tree"
	CategoryDeps     Category = "deps"
	CategoryIssues   Category = "issues"
	CategoryIssue    Category = "issue"
	CategoryHealth   Category = "health"
)

// ErrUnknownCategory is returned when a category name is not in the known set.
var ErrUnknownCategory = errors.New("unknown cache category")

// Categories returns every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryTrending,
		CategoryRepoInfo,
		CategoryReadme,
		CategoryTree,
		CategoryDeps,
		CategoryIssues,
		CategoryIssue,
		CategoryHealth,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := defaultTTLs[c]
	return ok
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a user-supplied name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}
