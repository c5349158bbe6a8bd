package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"zapisbot/libs/db"
	"zapisbot/services/booking-service/internal/model"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const userColumns = `id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''),
	COALESCE(last_name, ''), COALESCE(schema_name, ''), created_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.LastName, &u.SchemaName, &u.CreatedAt)
	return u, err
}

// Upsert inserts the user on first contact and refreshes the profile fields
// on subsequent ones. The schema assignment is never touched here.
func (r *UserRepository) Upsert(ctx context.Context, tx pgx.Tx, tgID int64, username, firstName, lastName string) (model.User, error) {
	return scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (tg_id, username, first_name, last_name)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (tg_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name
		RETURNING `+userColumns,
		tgID, username, firstName, lastName))
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tg_id = $1`, tgID))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// AssignSchemaOnce records the schema for a user if none is recorded yet and
// returns the schema that ended up on the row. The first writer wins; later
// callers get the already-recorded value back.
func (r *UserRepository) AssignSchemaOnce(ctx context.Context, tx pgx.Tx, userID int64, schema string) (string, error) {
	if _, err := tx.Exec(ctx, `
		UPDATE users SET schema_name = $2
		WHERE id = $1 AND (schema_name IS NULL OR schema_name = '')`,
		userID, schema); err != nil {
		return "", err
	}
	var assigned string
	err := tx.QueryRow(ctx, `SELECT COALESCE(schema_name, '') FROM users WHERE id = $1`, userID).Scan(&assigned)
	return assigned, err
}

// List returns users newest first, with their current access and admin state
// joined in for the admin console.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]UserOverview, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`,
			EXISTS (SELECT 1 FROM user_access a WHERE a.user_id = users.id AND a.revoked_at IS NULL),
			EXISTS (SELECT 1 FROM admin_users m WHERE m.user_id = users.id)
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserOverview
	for rows.Next() {
		var o UserOverview
		if err := rows.Scan(&o.ID, &o.TgID, &o.Username, &o.FirstName, &o.LastName,
			&o.SchemaName, &o.CreatedAt, &o.HasAccess, &o.IsAdmin); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UserOverview is a users row plus its derived access flags.
type UserOverview struct {
	model.User
	HasAccess bool `json:"has_access"`
	IsAdmin   bool `json:"is_admin"`
}
