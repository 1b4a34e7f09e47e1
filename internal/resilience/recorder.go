package resilience

import (
	"context"
	"fmt"

	"github.com/MrWong99/phrasecoach/internal/history"
)

var _ history.Recorder = (*Recorder)(nil)

// Recorder is a [history.Recorder] guarded by a [CircuitBreaker]. Record and
// Recent share one breaker.
type Recorder struct {
	next    history.Recorder
	breaker *CircuitBreaker
}

// GuardRecorder wraps next with a circuit breaker built from cfg.
func GuardRecorder(next history.Recorder, cfg CircuitBreakerConfig) *Recorder {
	return &Recorder{next: next, breaker: NewCircuitBreaker(cfg)}
}

// Breaker returns the breaker guarding the recorder.
func (r *Recorder) Breaker() *CircuitBreaker { return r.breaker }

// Record implements [history.Recorder.Record]. While the breaker is open it
// fails fast with an error wrapping [ErrCircuitOpen].
func (r *Recorder) Record(ctx context.Context, a history.Attempt) error {
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.next.Record(ctx, a)
	})
	if err != nil {
		return fmt.Errorf("resilience: record attempt %s: %w", a.ID, err)
	}
	return nil
}

// Recent implements [history.Recorder.Recent].
func (r *Recorder) Recent(ctx context.Context, target string, limit int) ([]history.Attempt, error) {
	var out []history.Attempt
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.next.Recent(ctx, target, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resilience: recent attempts: %w", err)
	}
	return out, nil
}
