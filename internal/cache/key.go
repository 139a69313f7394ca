package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zeebo/blake3"
)

// keySeparator joins the category and the escaped parameter parts.
const keySeparator = "|"

// ErrInvalidCacheKey is returned for zero-value keys.
var ErrInvalidCacheKey = errors.New("cache key cannot be empty")

// Key is a deterministic cache key derived from a category and its request
// parameters. Equal requests always yield equal keys; parameters are escaped
// so that no two distinct parameter lists can collide.
type Key struct {
	category Category
	raw      string
}

// NewKey builds a key for category c from the ordered parameter parts.
// Parts are trimmed and lower-cased before escaping.
//
// Example: NewKey(CategoryTrending, "daily", "python") is "trending|daily|python".
func NewKey(c Category, parts ...string) (Key, error) {
	if !c.Valid() {
		return Key{}, fmt.Errorf("%w: %q", ErrUnknownCategory, string(c))
	}

	var b strings.Builder
	b.WriteString(string(c))
	for _, p := range parts {
		b.WriteString(keySeparator)
		b.WriteString(url.QueryEscape(strings.ToLower(strings.TrimSpace(p))))
	}
	return Key{category: c, raw: b.String()}, nil
}

// MustKey is NewKey for callers that only pass known categories.
func MustKey(c Category, parts ...string) Key {
	k, err := NewKey(c, parts...)
	if err != nil {
		panic(err)
	}
	return k
}

// Category returns the key's category.
func (k Key) Category() Category { return k.category }

// String returns the canonical key text.
func (k Key) String() string { return k.raw }

// IsZero reports whether k was never built.
func (k Key) IsZero() bool { return k.raw == "" }

// Digest returns the hex blake3 digest of the canonical key, used as the
// record's file name.
func (k Key) Digest() string {
	sum := blake3.Sum256([]byte(k.raw))
	return hex.EncodeToString(sum[:])
}
