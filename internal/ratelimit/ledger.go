package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Ledger stores the timestamps of permitted upstream calls per service.
type Ledger interface {
	// Calls returns the recorded calls for service at or after since, oldest first.
	Calls(ctx context.Context, service string, since time.Time) ([]time.Time, error)
	// Record appends a call for service at the given time.
	Record(ctx context.Context, service string, at time.Time) error
	// Reset forgets every recorded call.
	Reset(ctx context.Context) error
	// Close releases resources.
	Close() error
}

// MemoryLedger keeps calls in process memory. State lasts for one run.
type MemoryLedger struct {
	mu    sync.Mutex
	calls map[string][]time.Time
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{calls: make(map[string][]time.Time)}
}

// Calls implements Ledger. Entries older than since are pruned.
func (m *MemoryLedger) Calls(_ context.Context, service string, since time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.calls[service]
	i := sort.Search(len(all), func(i int) bool { return !all[i].Before(since) })
	kept := append([]time.Time(nil), all[i:]...)
	m.calls[service] = kept
	return append([]time.Time(nil), kept...), nil
}

// Record implements Ledger.
func (m *MemoryLedger) Record(_ context.Context, service string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := append(m.calls[service], at)
	sort.Slice(all, func(i, j int) bool { return all[i].Before(all[j]) })
	m.calls[service] = all
	return nil
}

// Reset implements Ledger.
func (m *MemoryLedger) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string][]time.Time)
	return nil
}

// Close implements Ledger.
func (m *MemoryLedger) Close() error { return nil }

// ledgerRetention bounds how long the SQLite ledger keeps rows.
const ledgerRetention = 24 * time.Hour

const createCallsTable = `
CREATE TABLE IF NOT EXISTS calls (
	service TEXT NOT NULL,
	at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calls_service_at ON calls(service, at);
`

// SQLiteLedger persists calls so rate limits hold across CLI invocations.
// There is no cross-process locking beyond SQLite's own; two concurrent runs
// may each be granted the same slot.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLiteLedger opens (or creates) the ledger database at path.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open ratelimit db: %w", err)
	}

	if _, err := db.Exec(createCallsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ratelimit db: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// Calls implements Ledger.
func (s *SQLiteLedger) Calls(ctx context.Context, service string, since time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at FROM calls WHERE service = ? AND at >= ? ORDER BY at`,
		service, since.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var at int64
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		out = append(out, time.Unix(0, at))
	}
	return out, rows.Err()
}

// Record implements Ledger. Rows older than a day are pruned on each write.
func (s *SQLiteLedger) Record(ctx context.Context, service string, at time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (service, at) VALUES (?, ?)`, service, at.UnixNano(),
	); err != nil {
		return fmt.Errorf("record call: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM calls WHERE at < ?`, at.Add(-ledgerRetention).UnixNano(),
	); err != nil {
		return fmt.Errorf("prune calls: %w", err)
	}
	return nil
}

// Reset implements Ledger.
func (s *SQLiteLedger) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM calls`); err != nil {
		return fmt.Errorf("reset calls: %w", err)
	}
	return nil
}

// Close implements Ledger.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
