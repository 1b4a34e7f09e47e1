// Package postgres provides a PostgreSQL-backed [history.Recorder].
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	_ = store.Record(ctx, attempt)
//	recent, _ := store.Recent(ctx, "Good morning", 20)
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/phrasecoach/internal/history"
	"github.com/MrWong99/phrasecoach/pkg/compare"
)

var _ history.Recorder = (*Store)(nil)

// Store records attempts in PostgreSQL through a [pgxpool.Pool].
// All operations are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, verifies the connection, and
// runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("history postgres: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("history postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history postgres: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history postgres: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Ping checks that the database is reachable. It is used as a readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all pooled connections.
func (s *Store) Close() {
	s.pool.Close()
}

// Record implements [history.Recorder].
func (s *Store) Record(ctx context.Context, a history.Attempt) error {
	const q = `
		INSERT INTO attempts
		    (id, recorded_at, target, spoken, score, rating, confidence,
		     correct, fuzzy_correct, incorrect, missing, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, q,
		a.ID,
		a.Timestamp,
		a.Target,
		a.Spoken,
		a.Score,
		string(a.Rating),
		a.Confidence,
		a.Correct,
		a.FuzzyCorrect,
		a.Incorrect,
		a.Missing,
		a.Extra,
	)
	if err != nil {
		return fmt.Errorf("history postgres: record: %w", err)
	}
	return nil
}

// Recent implements [history.Recorder].
func (s *Store) Recent(ctx context.Context, target string, limit int) ([]history.Attempt, error) {
	args := []any{}
	q := `
		SELECT id::text, recorded_at, target, spoken, score, rating, confidence,
		       correct, fuzzy_correct, incorrect, missing, extra
		FROM   attempts`
	if target != "" {
		args = append(args, target)
		q += fmt.Sprintf("\n\t\tWHERE  target = $%d", len(args))
	}
	q += "\n\t\tORDER  BY recorded_at DESC, id DESC"
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\n\t\tLIMIT  $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history postgres: recent: %w", err)
	}
	return collectAttempts(rows)
}

func collectAttempts(rows pgx.Rows) ([]history.Attempt, error) {
	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (history.Attempt, error) {
		var (
			a      history.Attempt
			id     string
			rating string
		)
		if err := row.Scan(
			&id,
			&a.Timestamp,
			&a.Target,
			&a.Spoken,
			&a.Score,
			&rating,
			&a.Confidence,
			&a.Correct,
			&a.FuzzyCorrect,
			&a.Incorrect,
			&a.Missing,
			&a.Extra,
		); err != nil {
			return history.Attempt{}, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return history.Attempt{}, fmt.Errorf("parse id %q: %w", id, err)
		}
		a.ID = parsed
		a.Rating = compare.Rating(rating)
		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("history postgres: scan rows: %w", err)
	}
	if attempts == nil {
		attempts = []history.Attempt{}
	}
	return attempts, nil
}
