package practice

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/phrasecoach/internal/observe"
	"github.com/MrWong99/phrasecoach/pkg/compare"
	"github.com/MrWong99/phrasecoach/pkg/types"
)

// Item is one (target, utterance) pair of a batch.
type Item struct {
	Target    string
	Utterance types.Utterance
}

// EvaluateBatch reviews every item with engine, running at most limit reviews
// at a time (limit < 1 means one at a time). Reviews are returned in input
// order. When ctx is cancelled no further items are started and ctx's error
// is returned.
func EvaluateBatch(ctx context.Context, engine *compare.Engine, items []Item, limit int) ([]compare.Review, error) {
	if limit < 1 {
		limit = 1
	}
	out := make([]compare.Review, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, it := range items {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = engine.Review(it.Target, it.Utterance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("practice: batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("practice: batch: %w", err)
	}
	return out, nil
}

// Batch is [EvaluateBatch] with the evaluator's current engine, plus batch
// metrics and a span. No attempts are recorded.
func (e *Evaluator) Batch(ctx context.Context, items []Item, limit int) ([]compare.Review, error) {
	ctx, span := observe.StartSpan(ctx, "practice.Batch",
		trace.WithAttributes(
			attribute.Int("batch.size", len(items)),
			attribute.Int("batch.limit", limit),
		),
	)
	defer span.End()

	e.metrics.BatchSize.Record(ctx, int64(len(items)))
	reviews, err := EvaluateBatch(ctx, e.Engine(), items, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, rv := range reviews {
		e.metrics.Scores.Record(ctx, int64(rv.Score))
	}
	return reviews, nil
}
