// Package history records practice attempts so a learner can see how their
// pronunciation of a phrase develops over time.
//
// Three recorders are provided: [Nop] discards attempts, [FileStore] appends
// them as JSON lines to a local file, and the postgres subpackage stores them
// in PostgreSQL.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/phrasecoach/pkg/compare"
)

// Attempt is one recorded review of a spoken phrase.
type Attempt struct {
	ID         uuid.UUID      `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Target     string         `json:"target"`
	Spoken     string         `json:"spoken"`
	Score      int            `json:"score"`
	Rating     compare.Rating `json:"rating"`
	Confidence *float64       `json:"confidence,omitempty"`

	Correct      int `json:"correct"`
	FuzzyCorrect int `json:"fuzzy_correct"`
	Incorrect    int `json:"incorrect"`
	Missing      int `json:"missing"`
	Extra        int `json:"extra"`
}

// NewAttempt builds an attempt from a review with a fresh ID, stamped at now
// in UTC.
func NewAttempt(rv compare.Review, now time.Time) Attempt {
	return Attempt{
		ID:           uuid.New(),
		Timestamp:    now.UTC(),
		Target:       rv.Target,
		Spoken:       rv.Spoken,
		Score:        rv.Score,
		Rating:       rv.Rating,
		Confidence:   rv.Confidence,
		Correct:      rv.Tally.Correct,
		FuzzyCorrect: rv.Tally.FuzzyCorrect,
		Incorrect:    rv.Tally.Incorrect,
		Missing:      rv.Tally.Missing,
		Extra:        rv.Tally.Extra,
	}
}

// Recorder stores attempts.
//
// All implementations must be safe for concurrent use.
type Recorder interface {
	// Record stores a.
	Record(ctx context.Context, a Attempt) error

	// Recent returns up to limit attempts, newest first. A non-empty target
	// restricts the result to that exact phrase. A limit of zero or less
	// means no limit.
	Recent(ctx context.Context, target string, limit int) ([]Attempt, error)
}

// Nop is a [Recorder] that keeps nothing.
type Nop struct{}

var _ Recorder = Nop{}

// Record implements [Recorder.Record].
func (Nop) Record(context.Context, Attempt) error { return nil }

// Recent implements [Recorder.Recent]. It always returns an empty slice.
func (Nop) Recent(context.Context, string, int) ([]Attempt, error) {
	return []Attempt{}, nil
}
