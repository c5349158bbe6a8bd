package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"zapisbot/libs/db"
)

type AdminRepository struct {
	pool *db.Pool
}

func NewAdminRepository(pool *db.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_users WHERE user_id = $1)`, userID).Scan(&ok)
	return ok, err
}

// Promote makes the user an admin. Reports whether the row was new.
func (r *AdminRepository) Promote(ctx context.Context, tx pgx.Tx, userID, grantedBy int64) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO admin_users (user_id, granted_by)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`, userID, grantedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Demote removes the user from the admin set. Reports whether they were in it.
func (r *AdminRepository) Demote(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM admin_users WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecordAudit appends an admin action to the audit log. Payload is a JSON
// blob describing the action target.
func (r *AdminRepository) RecordAudit(ctx context.Context, tx pgx.Tx, adminUserID int64, action string, payload []byte) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO admin_audit_log (admin_user_id, action, payload)
		VALUES ($1, $2, $3)`, adminUserID, action, string(payload))
	return err
}
