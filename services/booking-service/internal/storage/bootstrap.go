package storage

import (
	"context"
	"fmt"

	"zapisbot/libs/db"
)

// EnsurePublicTables creates the shared control tables on startup. All DDL is
// idempotent so repeated deploys are safe.
func EnsurePublicTables(ctx context.Context, pool *db.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			tg_id BIGINT NOT NULL UNIQUE,
			username VARCHAR(64),
			first_name VARCHAR(128),
			last_name VARCHAR(128),
			schema_name VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS user_access (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			granted_by BIGINT,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			revoked_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS user_access_user_idx ON user_access (user_id)`,
		`CREATE TABLE IF NOT EXISTS admin_users (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			granted_by BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS admin_audit_log (
			id BIGSERIAL PRIMARY KEY,
			admin_user_id BIGINT,
			action VARCHAR(64) NOT NULL,
			payload TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id BIGSERIAL PRIMARY KEY,
			event_id UUID NOT NULL UNIQUE,
			aggregate_type VARCHAR(64) NOT NULL,
			aggregate_id VARCHAR(128) NOT NULL,
			event_type VARCHAR(128) NOT NULL,
			payload JSONB NOT NULL,
			traceparent TEXT,
			tracestate TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			published_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS outbox_unpublished_idx ON outbox_events (id) WHERE published_at IS NULL`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure public tables: %w", err)
		}
	}
	return nil
}
