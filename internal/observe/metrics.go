// Package observe provides observability primitives for phrasecoach:
// OpenTelemetry metrics, tracing, trace-aware logging, and HTTP middleware
// that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed to
// Prometheus by [InitProvider]. Tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all phrasecoach metrics.
const meterName = "github.com/MrWong99/phrasecoach"

// Metrics holds all OpenTelemetry instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// CompareDuration tracks the latency of a single comparison.
	CompareDuration metric.Float64Histogram

	// Scores records the 0-100 score of each comparison.
	Scores metric.Int64Histogram

	// WordVerdicts counts per-word verdicts. Use with attribute:
	//   attribute.String("verdict", ...)
	WordVerdicts metric.Int64Counter

	// Attempts counts recorded practice attempts. Use with attribute:
	//   attribute.String("rating", ...)
	Attempts metric.Int64Counter

	// BatchSize records the number of items in batch comparisons.
	BatchSize metric.Int64Histogram

	// HistoryErrors counts failures to persist an attempt. Use with attribute:
	//   attribute.String("backend", ...)
	HistoryErrors metric.Int64Counter

	// ActiveSessions tracks open live practice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram bucket boundaries in seconds. Comparisons are
// CPU-bound and usually finish well under a millisecond.
var latencyBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5,
}

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// NewMetrics creates all instruments on the given [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CompareDuration, err = m.Float64Histogram("phrasecoach.compare.duration",
		metric.WithDescription("Latency of a single phrase comparison."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Scores, err = m.Int64Histogram("phrasecoach.compare.score",
		metric.WithDescription("Score of each comparison on a 0-100 scale."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.WordVerdicts, err = m.Int64Counter("phrasecoach.word.verdicts",
		metric.WithDescription("Per-word verdicts by verdict kind."),
	); err != nil {
		return nil, err
	}
	if met.Attempts, err = m.Int64Counter("phrasecoach.attempts",
		metric.WithDescription("Recorded practice attempts by rating."),
	); err != nil {
		return nil, err
	}
	if met.BatchSize, err = m.Int64Histogram("phrasecoach.batch.size",
		metric.WithDescription("Number of items per batch comparison."),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000),
	); err != nil {
		return nil, err
	}
	if met.HistoryErrors, err = m.Int64Counter("phrasecoach.history.errors",
		metric.WithDescription("Failures to persist a practice attempt by backend."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("phrasecoach.active_sessions",
		metric.WithDescription("Number of open live practice sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("phrasecoach.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails, which does not happen with the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordComparison records the latency and score of one comparison.
func (m *Metrics) RecordComparison(ctx context.Context, d time.Duration, score int) {
	m.CompareDuration.Record(ctx, d.Seconds())
	m.Scores.Record(ctx, int64(score))
}

// RecordVerdicts adds n occurrences of verdict to the word verdict counter.
func (m *Metrics) RecordVerdicts(ctx context.Context, verdict string, n int) {
	if n <= 0 {
		return
	}
	m.WordVerdicts.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("verdict", verdict)),
	)
}

// RecordAttempt counts a practice attempt with the given rating.
func (m *Metrics) RecordAttempt(ctx context.Context, rating string) {
	m.Attempts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("rating", rating)),
	)
}

// RecordHistoryError counts a failed attempt write.
func (m *Metrics) RecordHistoryError(ctx context.Context, backend string) {
	m.HistoryErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("backend", backend)),
	)
}
