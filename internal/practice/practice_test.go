package practice_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/phrasecoach/internal/history"
	"github.com/MrWong99/phrasecoach/internal/observe"
	"github.com/MrWong99/phrasecoach/internal/practice"
	"github.com/MrWong99/phrasecoach/pkg/compare"
	"github.com/MrWong99/phrasecoach/pkg/types"
)

// memRecorder is an in-memory history.Recorder that can be told to fail.
type memRecorder struct {
	mu       sync.Mutex
	attempts []history.Attempt
	err      error
}

func (r *memRecorder) Record(_ context.Context, a history.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.attempts = append(r.attempts, a)
	return nil
}

func (r *memRecorder) Recent(_ context.Context, _ string, _ int) ([]history.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]history.Attempt(nil), r.attempts...), nil
}

func newTestMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not an int sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestEvaluator_Attempt(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	rec := &memRecorder{}
	now := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
	ev := practice.NewEvaluator(nil,
		practice.WithRecorder(rec, "memory"),
		practice.WithMetrics(m),
		practice.WithClock(func() time.Time { return now }),
	)

	rv, err := ev.Attempt(context.Background(), "I want to go home.", types.Utterance{Text: "I want go home now"})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if rv.Tally.Correct != 4 || rv.Tally.Missing != 1 || rv.Tally.Extra != 1 {
		t.Errorf("tally: got %+v", rv.Tally)
	}

	if len(rec.attempts) != 1 {
		t.Fatalf("recorded %d attempts, want 1", len(rec.attempts))
	}
	a := rec.attempts[0]
	if a.Target != "I want to go home." || a.Score != rv.Score || !a.Timestamp.Equal(now) {
		t.Errorf("recorded attempt mismatch: %+v", a)
	}

	if got := counterTotal(t, reader, "phrasecoach.attempts"); got != 1 {
		t.Errorf("attempts counter = %d, want 1", got)
	}
	if got := counterTotal(t, reader, "phrasecoach.word.verdicts"); got != 6 {
		t.Errorf("verdict counter total = %d, want 6 (5 words + 1 extra)", got)
	}
}

func TestEvaluator_AttemptRecordFailure(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	boom := errors.New("disk full")
	ev := practice.NewEvaluator(nil,
		practice.WithRecorder(&memRecorder{err: boom}, "file"),
		practice.WithMetrics(m),
	)

	rv, err := ev.Attempt(context.Background(), "Good morning", types.Utterance{Text: "good morning"})
	if !errors.Is(err, boom) {
		t.Fatalf("Attempt: expected %v, got %v", boom, err)
	}
	if rv.Score != 100 {
		t.Errorf("review should still be returned, got score %d", rv.Score)
	}
	if got := counterTotal(t, reader, "phrasecoach.history.errors"); got != 1 {
		t.Errorf("history error counter = %d, want 1", got)
	}
	if got := counterTotal(t, reader, "phrasecoach.attempts"); got != 0 {
		t.Errorf("attempts counter = %d, want 0", got)
	}
}

func TestEvaluator_ReviewDoesNotRecord(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	rec := &memRecorder{}
	ev := practice.NewEvaluator(nil, practice.WithRecorder(rec, "memory"), practice.WithMetrics(m))

	rv := ev.Review(context.Background(), "hello", types.Utterance{Text: "hallo"})
	if rv.Score != 80 {
		t.Errorf("score: got %d, want 80", rv.Score)
	}
	if len(rec.attempts) != 0 {
		t.Errorf("Review recorded %d attempts", len(rec.attempts))
	}
}

func TestEvaluator_SetEngine(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	ev := practice.NewEvaluator(nil, practice.WithMetrics(m))

	u := types.Utterance{Text: "mornen"}
	if got := ev.Review(context.Background(), "morning", u).Words[0].Verdict; got != compare.Incorrect {
		t.Fatalf("default threshold: got %v, want Incorrect", got)
	}

	ev.SetEngine(compare.New(compare.WithFuzzyThreshold(0.7)))
	ev.SetEngine(nil)
	if got := ev.Engine().FuzzyThreshold(); got != 0.7 {
		t.Fatalf("FuzzyThreshold: got %v, want 0.7", got)
	}
	if got := ev.Review(context.Background(), "morning", u).Words[0].Verdict; got != compare.FuzzyCorrect {
		t.Errorf("lowered threshold: got %v, want FuzzyCorrect", got)
	}
}

func TestEvaluateBatch_Order(t *testing.T) {
	t.Parallel()

	engine := compare.New()
	var items []practice.Item
	for i := range 50 {
		target := fmt.Sprintf("phrase number %d", i)
		spoken := target
		if i%2 == 1 {
			spoken = "phrase"
		}
		items = append(items, practice.Item{Target: target, Utterance: types.Utterance{Text: spoken}})
	}

	for _, limit := range []int{0, 1, 4, 100} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			t.Parallel()
			got, err := practice.EvaluateBatch(context.Background(), engine, items, limit)
			if err != nil {
				t.Fatalf("EvaluateBatch: %v", err)
			}
			if len(got) != len(items) {
				t.Fatalf("got %d reviews, want %d", len(got), len(items))
			}
			for i, rv := range got {
				if rv.Target != items[i].Target {
					t.Fatalf("review %d is for %q, want %q", i, rv.Target, items[i].Target)
				}
				want := engine.Review(items[i].Target, items[i].Utterance)
				if rv.Score != want.Score {
					t.Errorf("review %d: score %d, want %d", i, rv.Score, want.Score)
				}
			}
		})
	}
}

func TestEvaluateBatch_Empty(t *testing.T) {
	t.Parallel()
	got, err := practice.EvaluateBatch(context.Background(), compare.New(), nil, 4)
	if err != nil {
		t.Fatalf("EvaluateBatch: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d reviews, want 0", len(got))
	}
}

func TestEvaluateBatch_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []practice.Item{{Target: "a", Utterance: types.Utterance{Text: "a"}}}
	if _, err := practice.EvaluateBatch(ctx, compare.New(), items, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluator_Batch(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	ev := practice.NewEvaluator(nil, practice.WithMetrics(m))
	items := []practice.Item{
		{Target: "hello", Utterance: types.Utterance{Text: "hallo"}},
		{Target: "Good morning", Utterance: types.Utterance{Text: "morning"}},
	}
	got, err := ev.Batch(context.Background(), items, 2)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if got[0].Score != 80 || got[1].Score != 58 {
		t.Errorf("scores: got %d, %d; want 80, 58", got[0].Score, got[1].Score)
	}
}

func TestSession(t *testing.T) {
	t.Parallel()

	m, _ := newTestMetrics(t)
	rec := &memRecorder{}
	ev := practice.NewEvaluator(nil, practice.WithRecorder(rec, "memory"), practice.WithMetrics(m))
	s := practice.NewSession(ev, []string{"Good morning", "The weather is nice.", "hello"})

	if p, ok := s.Current(); !ok || p != "Good morning" {
		t.Fatalf("Current: got %q, %v", p, ok)
	}
	s.Prev()
	if s.Index() != 2 {
		t.Errorf("Prev wrap: index %d, want 2", s.Index())
	}
	s.Next()
	if s.Index() != 0 {
		t.Errorf("Next wrap: index %d, want 0", s.Index())
	}

	rv, err := s.Attempt(context.Background(), 1, types.Utterance{Text: "the weather is nice"})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if rv.Score != 100 || rv.Rating != compare.RatingGreat {
		t.Errorf("review: score %d rating %q", rv.Score, rv.Rating)
	}
	if s.Index() != 1 {
		t.Errorf("Attempt should move to the phrase, index %d", s.Index())
	}
	if len(rec.attempts) != 1 {
		t.Errorf("recorded %d attempts, want 1", len(rec.attempts))
	}

	if _, err := s.Attempt(context.Background(), 3, types.Utterance{Text: "x"}); !errors.Is(err, practice.ErrNoPhrase) {
		t.Errorf("out of range: expected ErrNoPhrase, got %v", err)
	}
}

func TestSession_Empty(t *testing.T) {
	t.Parallel()
	s := practice.NewSession(practice.NewEvaluator(nil), nil)
	if _, ok := s.Current(); ok {
		t.Error("Current: expected ok=false")
	}
	s.Next()
	s.Prev()
	if s.Index() != 0 {
		t.Errorf("Index: got %d, want 0", s.Index())
	}
}
