// Package fetch is the single entry point to cached upstream data. For every
// request it checks the cache, returns fresh records without touching the
// network or the rate limiter, and otherwise acquires a rate-limit slot, runs
// the category's ordered source chain, stores the result and returns it.
//
// When a refresh is impossible an expired record may still be served: always
// for trending listings, and for evaluation categories only when configured.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rshade/ghtrend/internal/cache"
	"github.com/rshade/ghtrend/internal/logging"
	"github.com/rshade/ghtrend/internal/ratelimit"
	"github.com/rshade/ghtrend/internal/upstream"
)

// Limiter is the part of ratelimit.Limiter the fetcher uses.
type Limiter interface {
	Acquire(ctx context.Context, service string) error
	Reset(ctx context.Context) error
}

// Result is a fetched value with where it came from.
type Result[T any] struct {
	Value T
	// FromCache is true when no upstream call was made.
	FromCache bool
	// Stale is true when an expired record was served because the upstream
	// could not be used. Stale implies FromCache.
	Stale bool
	// StoredAt is when the returned value was written to the cache.
	StoredAt time.Time
	// Source names the upstream that produced the value, or "cache".
	Source string
	// Cause is why a stale value was served.
	Cause error
}

// SourceCache is Result.Source for values read from the cache.
const SourceCache = "cache"

// Source is one entry of a category's ordered source chain.
type Source[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// Fetcher coordinates the cache store, TTL policy, rate limiter and upstream
// adapters. It is safe for concurrent use.
type Fetcher struct {
	store   cache.Store
	policy  *cache.Policy
	limiter Limiter
	metrics *Metrics
	now     func() time.Time

	trending     []TrendingSource
	meta         MetadataSource
	readmeBackup ReadmeSource
	health       HealthSource

	staleOnError bool
	group        singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTrendingSources sets the trending chain, tried in order.
func WithTrendingSources(sources ...TrendingSource) Option {
	return func(f *Fetcher) { f.trending = sources }
}

// WithMetadata sets the gh-backed metadata source.
func WithMetadata(m MetadataSource) Option {
	return func(f *Fetcher) { f.meta = m }
}

// WithReadmeFallback sets the README source tried after the metadata source.
func WithReadmeFallback(r ReadmeSource) Option {
	return func(f *Fetcher) { f.readmeBackup = r }
}

// WithHealth sets the health signal source used by Health.
func WithHealth(h HealthSource) Option {
	return func(f *Fetcher) { f.health = h }
}

// WithStaleOnError lets evaluation categories serve expired records when the
// upstream is unusable. Trending listings always may.
func WithStaleOnError(enabled bool) Option {
	return func(f *Fetcher) { f.staleOnError = enabled }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithClock overrides the clock used for health scoring.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New creates a Fetcher. A nil store disables caching; a nil policy uses the
// default TTL table.
func New(store cache.Store, policy *cache.Policy, limiter Limiter, opts ...Option) *Fetcher {
	if store == nil {
		store = cache.NopStore{}
	}
	if policy == nil {
		policy = cache.NewPolicy(nil)
	}
	f := &Fetcher{
		store:   store,
		policy:  policy,
		limiter: limiter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.metrics == nil {
		if m, err := NewMetrics(nil); err == nil {
			f.metrics = m
		}
	}
	return f
}

// Policy returns the TTL policy.
func (f *Fetcher) Policy() *cache.Policy { return f.policy }

// CacheDir returns the cache root, or "" when caching is disabled.
func (f *Fetcher) CacheDir() string { return f.store.Dir() }

// ClearCache removes every record and resets the rate-limit ledger. It is
// the only operation that resets the limiter.
func (f *Fetcher) ClearCache(ctx context.Context) (int, error) {
	n, err := f.store.InvalidateAll()
	if err != nil {
		return n, fmt.Errorf("clearing cache: %w", err)
	}
	if f.limiter != nil {
		if err := f.limiter.Reset(ctx); err != nil {
			return n, fmt.Errorf("resetting rate-limit ledger: %w", err)
		}
	}
	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "fetch").
		Str("operation", "clear").
		Int("removed", n).
		Str("dir", f.store.Dir()).
		Msg("cache cleared")
	return n, nil
}

// CacheStats summarizes the records on disk.
func (f *Fetcher) CacheStats() (cache.Stats, error) {
	return f.store.Stats(f.policy)
}

// canServeStale reports whether an expired record of req's category may be
// returned in place of a failed refresh.
func (f *Fetcher) canServeStale(req Request) bool {
	return req.Category() == cache.CategoryTrending || f.staleOnError
}

// get implements the fetch algorithm for one request.
func get[T any](ctx context.Context, f *Fetcher, req Request, sources []Source[T]) (Result[T], error) {
	log := logging.FromContext(ctx).With().
		Str("component", "fetch").
		Str("category", req.Category().String()).
		Str("params", req.Describe()).
		Logger()

	key, err := Key(req)
	if err != nil {
		return Result[T]{}, failed(req, err)
	}

	rec, found := f.store.Get(key)
	if found && f.policy.IsFresh(rec) {
		var v T
		if err := rec.Decode(&v); err == nil {
			f.metrics.recordLookup(ctx, req, lookupHit)
			log.Debug().Ctx(ctx).Str("key", key.String()).Msg("cache hit")
			return Result[T]{Value: v, FromCache: true, StoredAt: rec.StoredAt, Source: SourceCache}, nil
		}
		log.Warn().Ctx(ctx).Str("key", key.String()).Err(err).Msg("cached payload does not match its type, refetching")
		_ = f.store.Invalidate(key)
		found = false
	}
	if found {
		f.metrics.recordLookup(ctx, req, lookupExpired)
	} else {
		f.metrics.recordLookup(ctx, req, lookupMiss)
	}

	v, err, shared := f.group.Do(key.String(), func() (any, error) {
		return refresh(ctx, f, req, key, sources)
	})
	if err != nil && shared && ctx.Err() == nil && errors.Is(err, context.Canceled) {
		// The shared call ran on another caller's context, which ended.
		log.Debug().Ctx(ctx).Str("key", key.String()).Err(err).Msg("shared fetch cancelled, retrying")
		v, err = refresh(ctx, f, req, key, sources)
	}
	if err == nil {
		return v.(Result[T]), nil
	}

	if found && f.canServeStale(req) && ctx.Err() == nil {
		var stale T
		if decodeErr := rec.Decode(&stale); decodeErr == nil {
			f.metrics.recordStale(ctx, req)
			log.Warn().
				Ctx(ctx).
				Str("key", key.String()).
				Time("stored_at", rec.StoredAt).
				Err(err).
				Msg("serving stale cache entry")
			return Result[T]{
				Value:     stale,
				FromCache: true,
				Stale:     true,
				StoredAt:  rec.StoredAt,
				Source:    SourceCache,
				Cause:     err,
			}, nil
		}
	}
	return Result[T]{}, failed(req, err)
}

// refresh acquires a rate-limit slot, runs the source chain and stores the
// result. It runs once per key at a time.
func refresh[T any](ctx context.Context, f *Fetcher, req Request, key cache.Key, sources []Source[T]) (Result[T], error) {
	log := logging.FromContext(ctx)

	if f.limiter != nil {
		if err := f.limiter.Acquire(ctx, req.Service()); err != nil {
			if isRateLimited(err) {
				f.metrics.recordLimited(ctx, req)
			}
			return Result[T]{}, err
		}
	}

	started := time.Now()
	v, source, err := firstSuccess(ctx, f, req, sources)
	f.metrics.recordLatency(ctx, req, time.Since(started).Seconds())
	if err != nil {
		return Result[T]{}, err
	}

	res := Result[T]{Value: v, Source: source, StoredAt: f.now().UTC()}
	rec, putErr := f.store.Put(key, v)
	if putErr != nil {
		log.Warn().
			Ctx(ctx).
			Str("component", "fetch").
			Str("key", key.String()).
			Err(putErr).
			Msg("could not store fetched result")
	} else {
		res.StoredAt = rec.StoredAt
	}
	return res, nil
}

// firstSuccess runs sources in order and returns the first success. Each
// failure is logged and the next source tried; context cancellation stops
// the chain.
func firstSuccess[T any](ctx context.Context, f *Fetcher, req Request, sources []Source[T]) (T, string, error) {
	var zero T
	if len(sources) == 0 {
		return zero, "", fmt.Errorf("%w: no source configured for %s", upstream.ErrUnavailable, req.Category())
	}

	log := logging.FromContext(ctx)
	var errs []error
	for _, s := range sources {
		v, err := s.Fetch(ctx)
		f.metrics.recordUpstream(ctx, req, s.Name, err)
		if err == nil {
			log.Debug().
				Ctx(ctx).
				Str("component", "fetch").
				Str("category", req.Category().String()).
				Str("source", s.Name).
				Msg("fetched from upstream")
			return v, s.Name, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, "", ctxErr
		}
		log.Info().
			Ctx(ctx).
			Str("component", "fetch").
			Str("category", req.Category().String()).
			Str("source", s.Name).
			Err(err).
			Msg("source failed")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return zero, "", errors.Join(errs...)
}

func isRateLimited(err error) bool {
	return errors.Is(err, ratelimit.ErrRateLimited)
}
