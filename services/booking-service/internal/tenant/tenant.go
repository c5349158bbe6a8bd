// Package tenant maps business owners to their private Postgres schemas and
// provisions those schemas on demand.
package tenant

import (
	"context"
	"fmt"
	"log/slog"

	"zapisbot/libs/db"
)

// Tenant is the resolved schema handle for one business owner. Every
// appointment and schedule query is qualified with Schema, so two owners can
// never see each other's rows.
type Tenant struct {
	OwnerTgID int64
	Schema    string
}

// SchemaFor derives the schema name for a Telegram account. Bot and channel
// ids can be negative; the schema name uses the absolute value.
func SchemaFor(tgID int64) string {
	if tgID < 0 {
		tgID = -tgID
	}
	return fmt.Sprintf("user_%d", tgID)
}

// Provisioner creates tenant schemas and their tables.
type Provisioner struct {
	pool   *db.Pool
	logger *slog.Logger
}

func NewProvisioner(pool *db.Pool, logger *slog.Logger) *Provisioner {
	return &Provisioner{pool: pool, logger: logger}
}

// EnsureSchema creates the schema and its tables if they do not exist yet.
// Concurrent calls for the same schema serialize on an advisory lock, so the
// DDL never races with itself.
func (p *Provisioner) EnsureSchema(ctx context.Context, schema string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin provision tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, schema); err != nil {
		return fmt.Errorf("acquire provision lock: %w", err)
	}

	q := db.QuoteIdent(schema)
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + q,
		`CREATE TABLE IF NOT EXISTS ` + q + `.appointments (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			contact VARCHAR(255) NOT NULL,
			time VARCHAR(16) NOT NULL,
			day VARCHAR(16) NOT NULL,
			prepayment NUMERIC(10,2) NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS appointments_day_idx ON ` + q + `.appointments (day)`,
		`CREATE TABLE IF NOT EXISTS ` + q + `.schedule_days (
			year INT NOT NULL,
			month INT NOT NULL,
			day INT NOT NULL,
			PRIMARY KEY (year, month, day)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + q + `.schedule_slots (
			weekday INT PRIMARY KEY,
			slots VARCHAR(255) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + q + `.expenses (
			id BIGSERIAL PRIMARY KEY,
			amount NUMERIC(10,2) NOT NULL,
			month VARCHAR(7) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS expenses_month_idx ON ` + q + `.expenses (month)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("provision schema %s: %w", schema, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit provision tx: %w", err)
	}
	p.logger.Info("tenant schema ensured", "schema", schema)
	return nil
}
