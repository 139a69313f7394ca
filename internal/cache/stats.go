package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CategoryStats summarizes the records of one category.
type CategoryStats struct {
	Category Category
	Entries  int
	Fresh    int
	Stale    int
	Corrupt  int
	Bytes    int64
	Oldest   time.Time
	Newest   time.Time
}

// Stats summarizes a store's contents.
type Stats struct {
	Dir        string
	Entries    int
	Fresh      int
	Stale      int
	Corrupt    int
	Bytes      int64
	Categories []CategoryStats
}

// Stats walks every category directory and classifies each record with p.
// Stats never repairs; corrupt files are only counted.
func (s *FileStore) Stats(p *Policy) (Stats, error) {
	if p == nil {
		p = NewPolicy(nil)
	}

	out := Stats{Dir: s.directory}
	for _, c := range Categories() {
		cs, err := s.categoryStats(c, p)
		if err != nil {
			return out, err
		}
		out.Entries += cs.Entries
		out.Fresh += cs.Fresh
		out.Stale += cs.Stale
		out.Corrupt += cs.Corrupt
		out.Bytes += cs.Bytes
		out.Categories = append(out.Categories, cs)
	}
	return out, nil
}

func (s *FileStore) categoryStats(c Category, p *Policy) (CategoryStats, error) {
	cs := CategoryStats{Category: c}
	dir := filepath.Join(s.directory, string(c))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cs, nil
		}
		return cs, fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, tempFilePrefix) || filepath.Ext(name) != cacheFileExtension {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}

		cs.Entries++
		cs.Bytes += info.Size()

		data, readErr := os.ReadFile(filepath.Join(dir, name))
		if readErr != nil {
			cs.Corrupt++
			continue
		}
		rec, decErr := s.codec.unmarshal(data)
		if decErr != nil {
			cs.Corrupt++
			continue
		}

		if p.IsFresh(rec) {
			cs.Fresh++
		} else {
			cs.Stale++
		}
		if cs.Oldest.IsZero() || rec.StoredAt.Before(cs.Oldest) {
			cs.Oldest = rec.StoredAt
		}
		if rec.StoredAt.After(cs.Newest) {
			cs.Newest = rec.StoredAt
		}
	}
	return cs, nil
}
