package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlAttempts = `
CREATE TABLE IF NOT EXISTS attempts (
    id             UUID              PRIMARY KEY,
    recorded_at    TIMESTAMPTZ       NOT NULL DEFAULT now(),
    target         TEXT              NOT NULL,
    spoken         TEXT              NOT NULL DEFAULT '',
    score          INTEGER           NOT NULL,
    rating         TEXT              NOT NULL,
    confidence     DOUBLE PRECISION,
    correct        INTEGER           NOT NULL DEFAULT 0,
    fuzzy_correct  INTEGER           NOT NULL DEFAULT 0,
    incorrect      INTEGER           NOT NULL DEFAULT 0,
    missing        INTEGER           NOT NULL DEFAULT 0,
    extra          INTEGER           NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_attempts_recorded_at
    ON attempts (recorded_at DESC);

CREATE INDEX IF NOT EXISTS idx_attempts_target_recorded_at
    ON attempts (target, recorded_at DESC);
`

// Migrate creates the attempts table and its indexes. It is idempotent and
// safe to call on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlAttempts); err != nil {
		return fmt.Errorf("migrate attempts: %w", err)
	}
	return nil
}
