package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"zapisbot/libs/db"
	"zapisbot/services/booking-service/internal/model"
)

// AppointmentRepository reads and writes appointments inside a tenant schema.
// The schema name comes from the authenticated tenant, never from request
// input, and is quoted before interpolation.
type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func apptTable(schema string) string {
	return db.QuoteIdent(schema) + ".appointments"
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, schema string, a *model.Appointment) error {
	return tx.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, contact, time, day, prepayment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, apptTable(schema)),
		a.Name, a.Contact, a.Time, a.Day, a.Prepayment).Scan(&a.ID)
}

func (r *AppointmentRepository) Update(ctx context.Context, tx pgx.Tx, schema string, a model.Appointment) (bool, error) {
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET name = $2, contact = $3, time = $4, day = $5, prepayment = $6
		WHERE id = $1`, apptTable(schema)),
		a.ID, a.Name, a.Contact, a.Time, a.Day, a.Prepayment)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetForUpdate loads an appointment with a row lock so cancel can read the
// payload for the event and delete it in the same transaction.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, schema string, id int64) (model.Appointment, error) {
	var a model.Appointment
	err := tx.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, name, contact, time, day, prepayment
		FROM %s WHERE id = $1
		FOR UPDATE`, apptTable(schema)), id).
		Scan(&a.ID, &a.Name, &a.Contact, &a.Time, &a.Day, &a.Prepayment)
	return a, err
}

// FirstByContactForUpdate locks the earliest appointment matching the contact.
func (r *AppointmentRepository) FirstByContactForUpdate(ctx context.Context, tx pgx.Tx, schema, contact string) (model.Appointment, error) {
	var a model.Appointment
	err := tx.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, name, contact, time, day, prepayment
		FROM %s WHERE contact = $1
		ORDER BY day, time, id
		LIMIT 1
		FOR UPDATE`, apptTable(schema)), contact).
		Scan(&a.ID, &a.Name, &a.Contact, &a.Time, &a.Day, &a.Prepayment)
	return a, err
}

func (r *AppointmentRepository) DeleteByID(ctx context.Context, tx pgx.Tx, schema string, id int64) (bool, error) {
	tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, apptTable(schema)), id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AppointmentRepository) scanAll(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	out := make([]model.Appointment, 0)
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.Name, &a.Contact, &a.Time, &a.Day, &a.Prepayment); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ByDay returns the day's appointments ordered by time of day.
func (r *AppointmentRepository) ByDay(ctx context.Context, schema, day string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, name, contact, time, day, prepayment
		FROM %s WHERE day = $1
		ORDER BY time, id`, apptTable(schema)), day)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// ByRange returns appointments with start <= day <= end, ordered by day then
// time. Dates are normalized YYYY-MM-DD strings, so string comparison orders
// them correctly.
func (r *AppointmentRepository) ByRange(ctx context.Context, schema, start, end string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, name, contact, time, day, prepayment
		FROM %s WHERE day >= $1 AND day <= $2
		ORDER BY day, time, id`, apptTable(schema)), start, end)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

// BookedDays returns the distinct days of a month that carry at least one
// appointment, for the calendar highlight.
func (r *AppointmentRepository) BookedDays(ctx context.Context, schema string, year, month int) ([]int, error) {
	start := fmt.Sprintf("%04d-%02d-01", year, month)
	end := fmt.Sprintf("%04d-%02d-31", year, month)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT DISTINCT day FROM %s
		WHERE day >= $1 AND day <= $2
		ORDER BY day`, apptTable(schema)), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]int, 0)
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		var y, m, d int
		if _, err := fmt.Sscanf(day, "%d-%d-%d", &y, &m, &d); err == nil {
			days = append(days, d)
		}
	}
	return days, rows.Err()
}
