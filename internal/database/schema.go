package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id    BIGINT PRIMARY KEY,
    username   TEXT NOT NULL DEFAULT '',
    balance    BIGINT NOT NULL DEFAULT 0,
    autobuy    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rules (
    user_id      BIGINT PRIMARY KEY REFERENCES users(user_id) ON DELETE CASCADE,
    only_limited BOOLEAN NOT NULL DEFAULT TRUE,
    min_price    BIGINT NOT NULL DEFAULT 0,
    max_price    BIGINT NOT NULL DEFAULT 1000000000,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payments (
    id      UUID PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    amount  BIGINT NOT NULL,
    payload TEXT NOT NULL DEFAULT '',
    ts      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS gifts_cache (
    gift_id  TEXT PRIMARY KEY,
    title    TEXT NOT NULL DEFAULT '',
    price    BIGINT NOT NULL DEFAULT 0,
    added_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS logs (
    id      BIGSERIAL PRIMARY KEY,
    level   TEXT NOT NULL,
    message TEXT NOT NULL,
    ts      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// InitSchema creates the tables on startup. Losing the database is
// fatal for the process, so errors propagate to main.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	db.logger.Info("Database schema ready")
	return nil
}
