package schedule

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DaySelectionStore provides the two selection primitives the toggle builds
// on. Both report whether they changed anything.
type DaySelectionStore interface {
	RemoveDay(ctx context.Context, tx pgx.Tx, schema string, year, month, day int) (bool, error)
	AddDay(ctx context.Context, tx pgx.Tx, schema string, year, month, day int) (bool, error)
}

// ToggleDay flips the selection state of one calendar day and returns the new
// state: true when the day is now selected. A day that was selected gets
// removed; otherwise it gets added. Concurrent toggles of the same day are
// last-commit-wins with no extra ordering.
func ToggleDay(ctx context.Context, tx pgx.Tx, store DaySelectionStore, schema string, year, month, day int) (bool, error) {
	removed, err := store.RemoveDay(ctx, tx, schema, year, month, day)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}
	if _, err := store.AddDay(ctx, tx, schema, year, month, day); err != nil {
		return false, err
	}
	return true, nil
}
