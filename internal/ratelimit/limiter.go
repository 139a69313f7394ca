// Package ratelimit spaces outbound calls per upstream service.
//
// A Limiter enforces two rules per service: a minimum interval between calls
// and a maximum number of calls inside a sliding window. When the next slot is
// close enough (within the configured max wait) Acquire sleeps until it; when
// it is further out Acquire fails with ErrRateLimited instead of blocking.
// Only permitted calls are recorded, so cache hits never consume budget.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxWait is the longest Acquire sleeps before giving up.
const DefaultMaxWait = 3 * time.Second

// ErrRateLimited is returned when a call would exceed the allowed rate.
var ErrRateLimited = errors.New("rate limited")

// LimitError reports which service refused a call and when it frees up.
type LimitError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %s (retry in %s)", ErrRateLimited, e.Service, e.RetryAfter.Round(time.Millisecond))
}

// Is makes errors.Is(err, ErrRateLimited) match.
func (e *LimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Rule is the allowed call rate for one service. A zero MaxCalls disables
// the window check; a zero MinInterval disables spacing.
type Rule struct {
	MinInterval time.Duration
	MaxCalls    int
	Window      time.Duration
}

// lookback is how far back the ledger must be read to evaluate the rule.
func (r Rule) lookback() time.Duration {
	if r.Window > r.MinInterval {
		return r.Window
	}
	return r.MinInterval
}

// delay returns how long after now the next call may start, given the
// service's recorded calls in ascending order.
func (r Rule) delay(now time.Time, calls []time.Time) time.Duration {
	var wait time.Duration

	if n := len(calls); n > 0 && r.MinInterval > 0 {
		if d := calls[n-1].Add(r.MinInterval).Sub(now); d > wait {
			wait = d
		}
	}

	if r.MaxCalls > 0 && r.Window > 0 {
		cutoff := now.Add(-r.Window)
		var inWindow []time.Time
		for _, c := range calls {
			if c.After(cutoff) {
				inWindow = append(inWindow, c)
			}
		}
		if len(inWindow) >= r.MaxCalls {
			// The call that must age out before another fits.
			oldest := inWindow[len(inWindow)-r.MaxCalls]
			if d := oldest.Add(r.Window).Sub(now); d > wait {
				wait = d
			}
		}
	}
	return wait
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMaxWait sets the bounded-wait cap. Zero rejects instead of waiting.
func WithMaxWait(d time.Duration) Option {
	return func(l *Limiter) { l.maxWait = d }
}

// WithDefaultRule sets the rule for services without an explicit entry.
func WithDefaultRule(r Rule) Option {
	return func(l *Limiter) { l.defaultRule = r }
}

// WithClock replaces the clock and sleep function. Intended for tests.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// WithLogger sets the limiter's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Limiter) { l.logger = log }
}

// Limiter serializes Acquire per service and consults a Ledger for history.
type Limiter struct {
	ledger      Ledger
	rules       map[string]Rule
	defaultRule Rule
	maxWait     time.Duration
	now         func() time.Time
	sleep       func(context.Context, time.Duration) error
	logger      zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Limiter over ledger with the given per-service rules.
func New(ledger Ledger, rules map[string]Rule, opts ...Option) *Limiter {
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	l := &Limiter{
		ledger:  ledger,
		rules:   make(map[string]Rule, len(rules)),
		maxWait: DefaultMaxWait,
		now:     time.Now,
		sleep:   sleepContext,
		logger:  zerolog.Nop(),
		locks:   make(map[string]*sync.Mutex),
	}
	for svc, r := range rules {
		l.rules[svc] = r
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rule returns the rule applied to service.
func (l *Limiter) Rule(service string) Rule {
	if r, ok := l.rules[service]; ok {
		return r
	}
	return l.defaultRule
}

// Acquire reserves a call slot for service. It returns nil once the call may
// proceed, a *LimitError when the slot is further away than the max wait, or
// the context error if ctx ends while waiting.
func (l *Limiter) Acquire(ctx context.Context, service string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wait, err := l.reserve(ctx, service)
	if err != nil {
		return err
	}
	if wait <= 0 {
		return nil
	}

	l.logger.Debug().
		Str("service", service).
		Dur("wait", wait).
		Msg("waiting for rate limit slot")
	return l.sleep(ctx, wait)
}

// reserve computes and records the next slot under the service lock. The
// returned duration is how long the caller must sleep before using it.
func (l *Limiter) reserve(ctx context.Context, service string) (time.Duration, error) {
	lock := l.serviceLock(service)
	lock.Lock()
	defer lock.Unlock()

	rule := l.Rule(service)
	now := l.now()

	calls, err := l.ledger.Calls(ctx, service, now.Add(-rule.lookback()))
	if err != nil {
		return 0, fmt.Errorf("reading rate limit ledger: %w", err)
	}

	wait := rule.delay(now, calls)
	if wait > l.maxWait {
		l.logger.Debug().
			Str("service", service).
			Dur("retry_after", wait).
			Int("recent_calls", len(calls)).
			Msg("rate limit exceeded")
		return 0, &LimitError{Service: service, RetryAfter: wait}
	}

	if err := l.ledger.Record(ctx, service, now.Add(wait)); err != nil {
		return 0, fmt.Errorf("recording rate limit call: %w", err)
	}
	return wait, nil
}

// Reset clears the ledger. Only the explicit cache-clear command calls this.
func (l *Limiter) Reset(ctx context.Context) error {
	return l.ledger.Reset(ctx)
}

// Close closes the underlying ledger.
func (l *Limiter) Close() error {
	return l.ledger.Close()
}

func (l *Limiter) serviceLock(service string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[service]
	if !ok {
		m = &sync.Mutex{}
		l.locks[service] = m
	}
	return m
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
