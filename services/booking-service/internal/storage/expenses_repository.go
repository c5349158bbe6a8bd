package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"zapisbot/libs/db"
)

// ExpensesRepository tracks the owner's monthly expenses inside the tenant
// schema. Entries are keyed by a YYYY-MM month string; only the running
// total and an undo of the last entry are ever read back.
type ExpensesRepository struct {
	pool *db.Pool
}

func NewExpensesRepository(pool *db.Pool) *ExpensesRepository {
	return &ExpensesRepository{pool: pool}
}

func (r *ExpensesRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func expensesTable(schema string) string {
	return db.QuoteIdent(schema) + ".expenses"
}

func (r *ExpensesRepository) Add(ctx context.Context, tx pgx.Tx, schema, month string, amount float64) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (amount, month) VALUES ($1, $2)`, expensesTable(schema)),
		amount, month)
	return err
}

// TotalForMonth sums the month's entries; a month without entries totals zero.
func (r *ExpensesRepository) TotalForMonth(ctx context.Context, schema, month string) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COALESCE(SUM(amount), 0) FROM %s WHERE month = $1`, expensesTable(schema)),
		month).Scan(&total)
	return total, err
}

// RemoveLast undoes the most recent entry for the month. Reports whether
// there was one.
func (r *ExpensesRepository) RemoveLast(ctx context.Context, tx pgx.Tx, schema, month string) (bool, error) {
	table := expensesTable(schema)
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE id = (
			SELECT id FROM %s WHERE month = $1 ORDER BY id DESC LIMIT 1
		)`, table, table), month)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
