package ratelimit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the limiter sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *fakeClock, ledger Ledger, rules map[string]Rule, opts ...Option) *Limiter {
	opts = append([]Option{WithClock(clock.Now, clock.Sleep)}, opts...)
	return New(ledger, rules, opts...)
}

func recorded(t *testing.T, l Ledger, service string) int {
	t.Helper()
	calls, err := l.Calls(context.Background(), service, time.Time{})
	require.NoError(t, err)
	return len(calls)
}

func TestAcquire_WindowBoundRejects(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	ledger := NewMemoryLedger()
	l := newTestLimiter(clock, ledger,
		map[string]Rule{"gh": {MaxCalls: 3, Window: time.Minute}},
		WithMaxWait(0),
	)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx, "gh"), "call %d", i+1)
		clock.Advance(time.Second)
	}

	err := l.Acquire(ctx, "gh")
	require.ErrorIs(t, err, ErrRateLimited)

	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "gh", le.Service)
	assert.Equal(t, 57*time.Second, le.RetryAfter)

	assert.Equal(t, 3, recorded(t, ledger, "gh"), "rejected calls are not recorded")

	// Once the first call ages out of the window another is allowed.
	clock.Advance(57 * time.Second)
	require.NoError(t, l.Acquire(ctx, "gh"))
	assert.Empty(t, clock.sleeps)
}

func TestAcquire_WindowBoundDelaysWithinMaxWait(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, NewMemoryLedger(),
		map[string]Rule{"trending": {MaxCalls: 2, Window: 2 * time.Second}},
		WithMaxWait(5*time.Second),
	)

	start := clock.Now()
	require.NoError(t, l.Acquire(ctx, "trending"))
	require.NoError(t, l.Acquire(ctx, "trending"))
	require.NoError(t, l.Acquire(ctx, "trending"))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 2*time.Second, clock.sleeps[0])
	assert.Equal(t, start.Add(2*time.Second), clock.Now())
}

func TestAcquire_MinInterval(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, NewMemoryLedger(),
		map[string]Rule{"gh": {MinInterval: 500 * time.Millisecond}},
	)

	require.NoError(t, l.Acquire(ctx, "gh"))
	require.NoError(t, l.Acquire(ctx, "gh"))
	clock.Advance(time.Second)
	require.NoError(t, l.Acquire(ctx, "gh"))

	assert.Equal(t, []time.Duration{500 * time.Millisecond}, clock.sleeps)
}

func TestAcquire_ServicesAreIndependent(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, NewMemoryLedger(),
		map[string]Rule{
			"gh":       {MaxCalls: 1, Window: time.Hour},
			"trending": {MaxCalls: 1, Window: time.Hour},
		},
		WithMaxWait(0),
	)

	require.NoError(t, l.Acquire(ctx, "gh"))
	require.NoError(t, l.Acquire(ctx, "trending"))
	require.ErrorIs(t, l.Acquire(ctx, "gh"), ErrRateLimited)
}

func TestAcquire_DefaultRule(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, NewMemoryLedger(), nil,
		WithDefaultRule(Rule{MaxCalls: 1, Window: time.Minute}),
		WithMaxWait(0),
	)

	assert.Equal(t, 1, l.Rule("unknown").MaxCalls)
	require.NoError(t, l.Acquire(ctx, "unknown"))
	require.ErrorIs(t, l.Acquire(ctx, "unknown"), ErrRateLimited)
}

func TestAcquire_Cancelled(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, NewMemoryLedger(),
		map[string]Rule{"gh": {MinInterval: time.Second}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Acquire(ctx, "gh"))
	cancel()
	require.ErrorIs(t, l.Acquire(ctx, "gh"), context.Canceled)
}

func TestAcquire_RealSleepHonoursContext(t *testing.T) {
	l := New(NewMemoryLedger(), map[string]Rule{"gh": {MinInterval: time.Hour}}, WithMaxWait(2*time.Hour))
	require.NoError(t, l.Acquire(context.Background(), "gh"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx, "gh")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquire_ConcurrentNeverExceedsBound(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	ledger := NewMemoryLedger()
	l := newTestLimiter(clock, ledger,
		map[string]Rule{"gh": {MaxCalls: 5, Window: time.Minute}},
		WithMaxWait(0),
	)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
		limited int
	)
	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Acquire(ctx, "gh")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				allowed++
			} else if errors.Is(err, ErrRateLimited) {
				limited++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
	assert.Equal(t, 15, limited)
	assert.Equal(t, 5, recorded(t, ledger, "gh"))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := newTestLimiter(clock, NewMemoryLedger(),
		map[string]Rule{"gh": {MaxCalls: 1, Window: time.Hour}},
		WithMaxWait(0),
	)

	require.NoError(t, l.Acquire(ctx, "gh"))
	require.ErrorIs(t, l.Acquire(ctx, "gh"), ErrRateLimited)
	require.NoError(t, l.Reset(ctx))
	require.NoError(t, l.Acquire(ctx, "gh"))
}

func TestSQLiteLedger(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ratelimit.db")
	clock := newFakeClock()

	ledger, err := OpenSQLiteLedger(path)
	require.NoError(t, err)

	l := newTestLimiter(clock, ledger,
		map[string]Rule{"gh": {MaxCalls: 2, Window: time.Minute}},
		WithMaxWait(0),
	)
	require.NoError(t, l.Acquire(ctx, "gh"))
	require.NoError(t, l.Acquire(ctx, "gh"))
	require.NoError(t, l.Close())

	t.Run("state survives reopen", func(t *testing.T) {
		reopened, err := OpenSQLiteLedger(path)
		require.NoError(t, err)
		defer reopened.Close()

		l := newTestLimiter(clock, reopened,
			map[string]Rule{"gh": {MaxCalls: 2, Window: time.Minute}},
			WithMaxWait(0),
		)
		require.ErrorIs(t, l.Acquire(ctx, "gh"), ErrRateLimited)

		calls, err := reopened.Calls(ctx, "gh", clock.Now().Add(-time.Minute))
		require.NoError(t, err)
		require.Len(t, calls, 2)
		assert.True(t, calls[0].Equal(clock.Now()))

		require.NoError(t, reopened.Reset(ctx))
		require.NoError(t, l.Acquire(ctx, "gh"))
	})
}

func TestMemoryLedgerPrunes(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Record(ctx, "svc", base.Add(time.Duration(i)*time.Minute)))
	}

	calls, err := m.Calls(ctx, "svc", base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Len(t, calls, 2)
	assert.Equal(t, 2, recorded(t, m, "svc"), "older calls are dropped")
}
