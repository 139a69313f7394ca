package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// cacheFileExtension is the file extension used for cache records.
	cacheFileExtension = ".json"

	// tempFilePrefix marks in-flight writes. Readers and stats skip these.
	tempFilePrefix = ".tmp-"

	dirPerm  = 0o750
	filePerm = 0o600
)

// Common cache errors.
var (
	ErrEmptyPayload = errors.New("cache payload cannot be empty")
	ErrNoDirectory  = errors.New("cache directory cannot be empty")
)

// Store is the persistence contract the fetcher depends on.
type Store interface {
	// Get returns the record for key. Missing, unreadable and corrupt records
	// all report false; corrupt records are removed as a side effect.
	Get(key Key) (*Record, bool)
	// Put writes payload under key, replacing any previous record atomically.
	Put(key Key, payload any) (*Record, error)
	// Invalidate removes a single record. Missing records are not an error.
	Invalidate(key Key) error
	// InvalidateAll removes every record and returns how many were removed.
	InvalidateAll() (int, error)
	// Stats summarizes the records on disk.
	Stats(p *Policy) (Stats, error)
	// Dir returns the cache root, or "" when nothing is persisted.
	Dir() string
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used to report read-repair events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

// WithClock sets the clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) { s.now = now }
}

// FileStore keeps one JSON record per key under <dir>/<category>/.
//
// There is no in-process lock: every write goes to a temp file in the target
// directory and is renamed into place, so readers see either the previous
// record or the new one. Concurrent writers to one key are last-writer-wins.
type FileStore struct {
	directory string
	codec     *codec
	logger    zerolog.Logger
	now       func() time.Time
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-based store rooted at directory, creating the
// directory if it does not exist.
func NewFileStore(directory string, opts ...Option) (*FileStore, error) {
	if directory == "" {
		return nil, ErrNoDirectory
	}
	if err := os.MkdirAll(directory, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c, err := getCodec()
	if err != nil {
		return nil, err
	}

	s := &FileStore{
		directory: directory,
		codec:     c,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the cache root directory.
func (s *FileStore) Dir() string {
	return s.directory
}

// Get reads the record for key.
func (s *FileStore) Get(key Key) (*Record, bool) {
	if key.IsZero() {
		return nil, false
	}

	path := s.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("key", key.String()).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}

	rec, err := s.codec.unmarshal(data)
	if err == nil && (rec.Key != key.String() || rec.Category != key.Category()) {
		err = fmt.Errorf("%w: record key %q does not match %q", ErrCorrupted, rec.Key, key.String())
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("key", key.String()).
			Str("path", path).
			Msg("removing corrupt cache record")
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Debug().Err(rmErr).Str("path", path).Msg("corrupt record removal failed")
		}
		return nil, false
	}

	return rec, true
}

// Put serializes payload and stores it under key.
func (s *FileStore) Put(key Key, payload any) (*Record, error) {
	if key.IsZero() {
		return nil, ErrInvalidCacheKey
	}

	raw, err := toRawJSON(payload)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		Key:      key.String(),
		Category: key.Category(),
		StoredAt: s.now().UTC().Round(0),
		Payload:  raw,
	}

	data, err := s.codec.marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache record: %w", err)
	}

	if writeErr := s.writeAtomic(s.pathFor(key), data); writeErr != nil {
		return nil, writeErr
	}

	s.logger.Debug().
		Str("key", rec.Key).
		Str("category", rec.Category.String()).
		Int("bytes", len(data)).
		Msg("cache record stored")
	return rec, nil
}

// Invalidate removes the record for key.
func (s *FileStore) Invalidate(key Key) error {
	if key.IsZero() {
		return ErrInvalidCacheKey
	}
	err := os.Remove(s.pathFor(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// InvalidateAll removes every record and any temp files left by interrupted
// writes. Files outside the category directories are left alone.
func (s *FileStore) InvalidateAll() (int, error) {
	removed := 0
	for _, c := range Categories() {
		dir := filepath.Join(s.directory, string(c))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("failed to read cache directory: %w", err)
		}

		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() {
				continue
			}
			isTemp := strings.HasPrefix(name, tempFilePrefix)
			if !isTemp && filepath.Ext(name) != cacheFileExtension {
				continue
			}
			if rmErr := os.Remove(filepath.Join(dir, name)); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				return removed, fmt.Errorf("failed to remove cache file %s: %w", name, rmErr)
			}
			if !isTemp {
				removed++
			}
		}
	}

	s.logger.Info().Int("removed", removed).Str("dir", s.directory).Msg("cache cleared")
	return removed, nil
}

// pathFor maps a key to its record path. The blake3 digest makes the name
// filesystem-safe regardless of what the key parts contain.
func (s *FileStore) pathFor(key Key) string {
	return filepath.Join(s.directory, string(key.Category()), key.Digest()+cacheFileExtension)
}

func (s *FileStore) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err = tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync cache file: %w", err)
	}
	if err = tmp.Chmod(filePerm); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod cache file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

func toRawJSON(payload any) (json.RawMessage, error) {
	var raw json.RawMessage
	switch v := payload.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal cache payload: %w", err)
		}
		raw = b
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, ErrEmptyPayload
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrCorrupted)
	}
	// The envelope embeds the payload through json.Marshal, which compacts
	// and HTML-escapes raw messages. Hash the same bytes that get written.
	canonical, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache payload: %w", err)
	}
	return canonical, nil
}
