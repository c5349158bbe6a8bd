package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"zapisbot/libs/db"
)

type AccessRepository struct {
	pool *db.Pool
}

func NewAccessRepository(pool *db.Pool) *AccessRepository {
	return &AccessRepository{pool: pool}
}

// HasActiveAccess reports whether the user holds an unrevoked grant.
func (r *AccessRepository) HasActiveAccess(ctx context.Context, userID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_access WHERE user_id = $1 AND revoked_at IS NULL
		)`, userID).Scan(&ok)
	return ok, err
}

// Grant creates an access record unless an active one already exists, so
// repeated grants stay idempotent. Reports whether a new grant was written.
func (r *AccessRepository) Grant(ctx context.Context, tx pgx.Tx, userID, grantedBy int64) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO user_access (user_id, granted_by)
		SELECT $1, $2
		WHERE NOT EXISTS (
			SELECT 1 FROM user_access WHERE user_id = $1 AND revoked_at IS NULL
		)`, userID, grantedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Revoke closes all active grants for the user. Reports whether any grant
// was actually open.
func (r *AccessRepository) Revoke(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE user_access SET revoked_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
