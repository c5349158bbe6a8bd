package schedule

import (
	"context"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5"
)

type calendarDay struct {
	year, month, day int
}

// fakeDayStore backs the selection primitives with a plain set.
type fakeDayStore struct {
	selected map[calendarDay]bool
	addFails bool
}

func newFakeDayStore() *fakeDayStore {
	return &fakeDayStore{selected: map[calendarDay]bool{}}
}

func (f *fakeDayStore) RemoveDay(_ context.Context, _ pgx.Tx, _ string, year, month, day int) (bool, error) {
	key := calendarDay{year, month, day}
	if !f.selected[key] {
		return false, nil
	}
	delete(f.selected, key)
	return true, nil
}

func (f *fakeDayStore) AddDay(_ context.Context, _ pgx.Tx, _ string, year, month, day int) (bool, error) {
	key := calendarDay{year, month, day}
	if f.addFails || f.selected[key] {
		// ON CONFLICT DO NOTHING: the day is (or just became) selected anyway.
		f.selected[key] = true
		return false, nil
	}
	f.selected[key] = true
	return true, nil
}

func (f *fakeDayStore) days(year, month int) []int {
	var out []int
	for key := range f.selected {
		if key.year == year && key.month == month {
			out = append(out, key.day)
		}
	}
	sort.Ints(out)
	return out
}

func TestToggleDayRoundTrip(t *testing.T) {
	store := newFakeDayStore()
	ctx := context.Background()

	selected, err := ToggleDay(ctx, nil, store, "user_1", 2026, 3, 15)
	if err != nil {
		t.Fatalf("ToggleDay failed: %v", err)
	}
	if !selected {
		t.Fatal("first toggle must select the day")
	}
	if got := store.days(2026, 3); len(got) != 1 || got[0] != 15 {
		t.Fatalf("selected days after first toggle = %v, want [15]", got)
	}

	selected, err = ToggleDay(ctx, nil, store, "user_1", 2026, 3, 15)
	if err != nil {
		t.Fatalf("ToggleDay failed: %v", err)
	}
	if selected {
		t.Fatal("second toggle must deselect the day")
	}
	if got := store.days(2026, 3); len(got) != 0 {
		t.Fatalf("selected days after second toggle = %v, want empty", got)
	}
}

func TestToggleDayKeepsOtherDays(t *testing.T) {
	store := newFakeDayStore()
	ctx := context.Background()

	for _, day := range []int{2, 9, 23} {
		if _, err := ToggleDay(ctx, nil, store, "user_1", 2026, 3, day); err != nil {
			t.Fatalf("ToggleDay(%d) failed: %v", day, err)
		}
	}
	if _, err := ToggleDay(ctx, nil, store, "user_1", 2026, 3, 9); err != nil {
		t.Fatalf("ToggleDay failed: %v", err)
	}

	want := []int{2, 23}
	got := store.days(2026, 3)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("selected days = %v, want %v", got, want)
	}
}

func TestToggleDayAbsorbsConcurrentDuplicateInsert(t *testing.T) {
	store := newFakeDayStore()
	store.addFails = true

	// A racing request inserted the row between our delete and insert; the
	// conflict is silent and the day still reads as selected.
	selected, err := ToggleDay(context.Background(), nil, store, "user_1", 2026, 3, 15)
	if err != nil {
		t.Fatalf("ToggleDay failed: %v", err)
	}
	if !selected {
		t.Fatal("toggle must report the day selected even when the insert hit a conflict")
	}
	if got := store.days(2026, 3); len(got) != 1 {
		t.Fatalf("selected days = %v, want one entry", got)
	}
}
