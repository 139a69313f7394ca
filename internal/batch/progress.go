package batch

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks completed and failed items. It is safe for concurrent use.
type Progress struct {
	total     int
	processed int
	failed    int
	start     time.Time
	now       func() time.Time

	mu sync.Mutex
}

// NewProgress creates a tracker for total items.
func NewProgress(total int) *Progress {
	return &Progress{total: total, start: time.Now(), now: time.Now}
}

// Add records one finished item and returns the state after it.
func (p *Progress) Add(err error) ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addLocked(err)
}

func (p *Progress) addLocked(err error) ProgressSnapshot {
	p.processed++
	if err != nil {
		p.failed++
	}
	return p.snapshotLocked()
}

// notify records an item and calls cb with the lock held so callbacks see
// monotonically increasing counts.
func (p *Progress) notify(err error, cb ProgressCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cb(p.addLocked(err))
}

// Snapshot returns the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() ProgressSnapshot {
	s := ProgressSnapshot{
		TotalItems:     p.total,
		ProcessedItems: p.processed,
		FailedItems:    p.failed,
		ElapsedTime:    p.now().Sub(p.start),
	}
	if p.total > 0 {
		s.PercentComplete = float64(p.processed) / float64(p.total) * percentMultiplier
	}
	return s
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	TotalItems      int
	ProcessedItems  int
	FailedItems     int
	PercentComplete float64
	ElapsedTime     time.Duration
}

// IsComplete reports whether every item has finished.
func (s ProgressSnapshot) IsComplete() bool {
	return s.ProcessedItems >= s.TotalItems
}
