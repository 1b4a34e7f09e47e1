// Package practice turns completed utterances into reviews: it runs the
// comparison engine, records attempts to history, and emits metrics and
// traces for every evaluation.
package practice

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/phrasecoach/internal/history"
	"github.com/MrWong99/phrasecoach/internal/observe"
	"github.com/MrWong99/phrasecoach/pkg/compare"
	"github.com/MrWong99/phrasecoach/pkg/types"
)

// Option configures an [Evaluator].
type Option func(*Evaluator)

// WithRecorder stores every attempt in r. backend names the store in metrics
// and logs (e.g., "file", "postgres").
func WithRecorder(r history.Recorder, backend string) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.recorder = r
			e.backend = backend
		}
	}
}

// WithMetrics sets the metric instruments. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Evaluator) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithLogger sets the base logger. Default: [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source used to stamp attempts.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// Evaluator reviews utterances with the current engine. The engine can be
// swapped at any time with [Evaluator.SetEngine]; reviews already in flight
// finish with the engine they started with. Safe for concurrent use.
type Evaluator struct {
	engine   atomic.Pointer[compare.Engine]
	recorder history.Recorder
	backend  string
	metrics  *observe.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewEvaluator returns an evaluator that uses engine. A nil engine means
// [compare.New] with defaults.
func NewEvaluator(engine *compare.Engine, opts ...Option) *Evaluator {
	e := &Evaluator{
		recorder: history.Nop{},
		backend:  "none",
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	if engine == nil {
		engine = compare.New()
	}
	e.engine.Store(engine)
	return e
}

// Engine returns the engine currently in use.
func (e *Evaluator) Engine() *compare.Engine {
	return e.engine.Load()
}

// SetEngine replaces the engine for subsequent reviews. A nil engine is ignored.
func (e *Evaluator) SetEngine(engine *compare.Engine) {
	if engine != nil {
		e.engine.Store(engine)
	}
}

// Recorder returns the attempt store.
func (e *Evaluator) Recorder() history.Recorder {
	return e.recorder
}

// Review compares u against target without recording an attempt.
func (e *Evaluator) Review(ctx context.Context, target string, u types.Utterance) compare.Review {
	ctx, span := observe.StartSpan(ctx, "practice.Review",
		trace.WithAttributes(attribute.Int("target.length", len(target))),
	)
	defer span.End()
	return e.review(ctx, span, e.Engine(), target, u)
}

func (e *Evaluator) review(ctx context.Context, span trace.Span, engine *compare.Engine, target string, u types.Utterance) compare.Review {
	start := time.Now()
	rv := engine.Review(target, u)
	e.metrics.RecordComparison(ctx, time.Since(start), rv.Score)
	e.metrics.RecordVerdicts(ctx, compare.Correct.String(), rv.Tally.Correct)
	e.metrics.RecordVerdicts(ctx, compare.FuzzyCorrect.String(), rv.Tally.FuzzyCorrect)
	e.metrics.RecordVerdicts(ctx, compare.Incorrect.String(), rv.Tally.Incorrect)
	e.metrics.RecordVerdicts(ctx, compare.Missing.String(), rv.Tally.Missing)
	e.metrics.RecordVerdicts(ctx, "extra", rv.Tally.Extra)

	span.SetAttributes(
		attribute.Int("review.score", rv.Score),
		attribute.String("review.rating", string(rv.Rating)),
		attribute.Int("review.words", len(rv.Words)),
	)
	return rv
}

// Attempt reviews u against target and records the result. The review is
// always returned; err reports a failure to record it.
func (e *Evaluator) Attempt(ctx context.Context, target string, u types.Utterance) (compare.Review, error) {
	ctx, span := observe.StartSpan(ctx, "practice.Attempt",
		trace.WithAttributes(attribute.String("history.backend", e.backend)),
	)
	defer span.End()

	rv := e.review(ctx, span, e.Engine(), target, u)
	a := history.NewAttempt(rv, e.now())
	span.SetAttributes(attribute.String("attempt.id", a.ID.String()))

	log := observe.Logger(ctx, e.logger)
	if err := e.recorder.Record(ctx, a); err != nil {
		e.metrics.RecordHistoryError(ctx, e.backend)
		span.RecordError(err)
		span.SetStatus(codes.Error, "record attempt")
		log.Error("failed to record attempt", "backend", e.backend, "attempt_id", a.ID, "err", err)
		return rv, err
	}
	e.metrics.RecordAttempt(ctx, string(rv.Rating))
	log.Debug("attempt recorded",
		"attempt_id", a.ID,
		"score", rv.Score,
		"rating", rv.Rating,
	)
	return rv, nil
}
