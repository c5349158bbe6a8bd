// Package storage records delivery attempts and owns the service's tables.
package storage

import (
	"context"
	"fmt"

	"zapisbot/libs/db"
)

// EnsureTables creates the notification-side tables on startup.
func EnsureTables(ctx context.Context, pool *db.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS inbox_events (
			event_id VARCHAR(128) PRIMARY KEY,
			event_type VARCHAR(128),
			received_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id BIGSERIAL PRIMARY KEY,
			event_id VARCHAR(128) NOT NULL,
			event_type VARCHAR(128) NOT NULL,
			owner_tg_id BIGINT NOT NULL,
			provider VARCHAR(32) NOT NULL,
			body TEXT NOT NULL,
			status VARCHAR(32) NOT NULL,
			error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS notifications_owner_idx ON notifications (owner_tg_id)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure notification tables: %w", err)
		}
	}
	return nil
}

// Notification is one delivery attempt, successful or not.
type Notification struct {
	EventID   string
	EventType string
	OwnerTgID int64
	Provider  string
	Body      string
	Status    string
	Error     string
}

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type NotificationRepository struct {
	pool *db.Pool
}

func NewNotificationRepository(pool *db.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (event_id, event_type, owner_tg_id, provider, body, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, n.EventID, n.EventType, n.OwnerTgID, n.Provider, n.Body, n.Status, n.Error)
	return err
}
