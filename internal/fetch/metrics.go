package fetch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const meterName = "github.com/rshade/ghtrend/internal/fetch"

// Lookup results recorded on ghtrend.cache.lookups.
const (
	lookupHit     = "hit"
	lookupMiss    = "miss"
	lookupExpired = "expired"
)

// Metrics holds the fetcher's OpenTelemetry instruments. With no meter
// provider installed the global no-op provider makes every call free.
type Metrics struct {
	lookups      metric.Int64Counter
	upstream     metric.Int64Counter
	limited      metric.Int64Counter
	staleServed  metric.Int64Counter
	fetchLatency metric.Float64Histogram
}

// NewMetrics creates the instruments on meter. A nil meter uses the global
// provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}

	lookups, err := meter.Int64Counter(
		"ghtrend.cache.lookups",
		metric.WithDescription("Cache lookups by category and result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}
	up, err := meter.Int64Counter(
		"ghtrend.upstream.requests",
		metric.WithDescription("Upstream source attempts by category, source and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	limited, err := meter.Int64Counter(
		"ghtrend.ratelimit.denied",
		metric.WithDescription("Fetches refused by the local rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	stale, err := meter.Int64Counter(
		"ghtrend.cache.stale_served",
		metric.WithDescription("Expired records returned because the upstream could not be used"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"ghtrend.upstream.duration",
		metric.WithDescription("Duration of a full source chain run"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		lookups:      lookups,
		upstream:     up,
		limited:      limited,
		staleServed:  stale,
		fetchLatency: latency,
	}, nil
}

func (m *Metrics) recordLookup(ctx context.Context, req Request, result string) {
	if m == nil {
		return
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", req.Category().String()),
		attribute.String("result", result),
	))
}

func (m *Metrics) recordUpstream(ctx context.Context, req Request, source string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstream.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", req.Category().String()),
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) recordLimited(ctx context.Context, req Request) {
	if m == nil {
		return
	}
	m.limited.Add(ctx, 1, metric.WithAttributes(attribute.String("service", req.Service())))
}

func (m *Metrics) recordStale(ctx context.Context, req Request) {
	if m == nil {
		return
	}
	m.staleServed.Add(ctx, 1, metric.WithAttributes(attribute.String("category", req.Category().String())))
}

func (m *Metrics) recordLatency(ctx context.Context, req Request, seconds float64) {
	if m == nil {
		return
	}
	m.fetchLatency.Record(ctx, seconds, metric.WithAttributes(attribute.String("category", req.Category().String())))
}

// Collector is an in-process meter provider whose counters can be read back,
// so a single CLI run can report what its fetches did.
type Collector struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// NewCollector creates a collector with a manual reader.
func NewCollector() *Collector {
	reader := sdkmetric.NewManualReader()
	return &Collector{
		reader:   reader,
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// Meter returns the fetcher's meter on the collector's provider.
func (c *Collector) Meter() metric.Meter {
	return c.provider.Meter(meterName)
}

// Counts returns every counter total keyed by instrument name and encoded
// attributes, e.g. "ghtrend.cache.lookups{category=trending,result=hit}".
func (c *Collector) Counts(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := c.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	enc := attribute.DefaultEncoder()
	counts := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				counts[m.Name+"{"+dp.Attributes.Encoded(enc)+"}"] += dp.Value
			}
		}
	}
	return counts, nil
}

// Shutdown stops the provider.
func (c *Collector) Shutdown(ctx context.Context) error {
	return c.provider.Shutdown(ctx)
}
