package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"zapisbot/libs/db"
)

// ScheduleRepository stores the per-tenant day selections and the per-weekday
// slot overrides. Slots are kept as a comma-joined string per weekday row.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func daysTable(schema string) string {
	return db.QuoteIdent(schema) + ".schedule_days"
}

func slotsTable(schema string) string {
	return db.QuoteIdent(schema) + ".schedule_slots"
}

// SelectedDays returns the sorted selected day numbers for a month.
func (r *ScheduleRepository) SelectedDays(ctx context.Context, schema string, year, month int) ([]int, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT day FROM %s WHERE year = $1 AND month = $2`, daysTable(schema)),
		year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]int, 0)
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Ints(days)
	return days, nil
}

// RemoveDay deselects one calendar day. Reports whether it was selected.
func (r *ScheduleRepository) RemoveDay(ctx context.Context, tx pgx.Tx, schema string, year, month, day int) (bool, error) {
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE year = $1 AND month = $2 AND day = $3`, daysTable(schema)),
		year, month, day)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AddDay selects one calendar day. A concurrent duplicate insert is absorbed
// by the primary key, so the day ends up selected either way.
func (r *ScheduleRepository) AddDay(ctx context.Context, tx pgx.Tx, schema string, year, month, day int) (bool, error) {
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (year, month, day) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, daysTable(schema)),
		year, month, day)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SlotOverrides returns the stored per-weekday slot lists. Weekdays without a
// row are absent from the map; the caller layers these over the defaults.
func (r *ScheduleRepository) SlotOverrides(ctx context.Context, schema string) (map[int][]string, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT weekday, slots FROM %s`, slotsTable(schema)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int][]string)
	for rows.Next() {
		var weekday int
		var joined string
		if err := rows.Scan(&weekday, &joined); err != nil {
			return nil, err
		}
		slots := make([]string, 0)
		for _, s := range strings.Split(joined, ",") {
			if s = strings.TrimSpace(s); s != "" {
				slots = append(slots, s)
			}
		}
		out[weekday] = slots
	}
	return out, rows.Err()
}

// SaveSlotOverrides replaces the stored slot list for each weekday present in
// the map. Weekdays not present keep whatever they had.
func (r *ScheduleRepository) SaveSlotOverrides(ctx context.Context, tx pgx.Tx, schema string, overrides map[int][]string) error {
	for weekday, slots := range overrides {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (weekday, slots) VALUES ($1, $2)
			ON CONFLICT (weekday) DO UPDATE SET slots = EXCLUDED.slots`, slotsTable(schema)),
			weekday, strings.Join(slots, ",")); err != nil {
			return err
		}
	}
	return nil
}

// ClearSlotOverrides drops all stored overrides, falling back to defaults.
func (r *ScheduleRepository) ClearSlotOverrides(ctx context.Context, tx pgx.Tx, schema string) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, slotsTable(schema)))
	return err
}
