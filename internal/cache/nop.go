package cache

import "time"

// NopStore never persists anything. It backs --no-cache runs so the fetcher
// keeps a single code path.
type NopStore struct{}

var _ Store = NopStore{}

// Get always misses.
func (NopStore) Get(Key) (*Record, bool) { return nil, false }

// Put validates and wraps payload without writing it.
func (NopStore) Put(key Key, payload any) (*Record, error) {
	if key.IsZero() {
		return nil, ErrInvalidCacheKey
	}
	raw, err := toRawJSON(payload)
	if err != nil {
		return nil, err
	}
	return &Record{
		Key:      key.String(),
		Category: key.Category(),
		StoredAt: time.Now().UTC().Round(0),
		Payload:  raw,
	}, nil
}

// Invalidate is a no-op.
func (NopStore) Invalidate(Key) error { return nil }

// InvalidateAll is a no-op.
func (NopStore) InvalidateAll() (int, error) { return 0, nil }

// Stats reports an empty store.
func (NopStore) Stats(*Policy) (Stats, error) { return Stats{}, nil }

// Dir returns "".
func (NopStore) Dir() string { return "" }
