// Package schedule builds the bookable-slot text for a tenant's selected
// days, combining the weekly slot template with existing appointments.
package schedule

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"zapisbot/services/booking-service/internal/timetext"
)

// ErrNoValidSlots is returned when a slot override contains no usable time
// for any weekday.
var ErrNoValidSlots = errors.New("no valid slots in override")

// WeeklyTemplate maps a weekday (0 = Monday .. 6 = Sunday) to its slot
// tokens, each an HH:MM time with an optional trailing "*" priority marker.
type WeeklyTemplate map[int][]string

// DefaultTemplate returns the stock weekly template: four slots on weekdays,
// four slightly earlier ones on weekends. Callers get a fresh copy.
func DefaultTemplate() WeeklyTemplate {
	weekday := []string{"11:00", "14:00", "17:00", "20:00*"}
	weekend := []string{"10:00", "13:00", "16:00", "19:00*"}
	t := make(WeeklyTemplate, 7)
	for wd := 0; wd <= 4; wd++ {
		t[wd] = append([]string(nil), weekday...)
	}
	for wd := 5; wd <= 6; wd++ {
		t[wd] = append([]string(nil), weekend...)
	}
	return t
}

// Clone returns a deep copy so callers can overlay without sharing slices.
func (t WeeklyTemplate) Clone() WeeklyTemplate {
	out := make(WeeklyTemplate, len(t))
	for wd, slots := range t {
		out[wd] = append([]string(nil), slots...)
	}
	return out
}

// NormalizeSlots validates a raw per-weekday slot map. Each token is
// normalized to HH:MM with its priority marker preserved; tokens that do not
// parse are dropped with a warning, and weekdays left with no valid token are
// dropped entirely. Weekdays outside 0..6 are ignored.
func NormalizeSlots(raw map[int][]string, logger *slog.Logger) WeeklyTemplate {
	out := make(WeeklyTemplate)
	for weekday, tokens := range raw {
		if weekday < 0 || weekday > 6 {
			logger.Warn("slot override for unknown weekday ignored", "weekday", weekday)
			continue
		}
		kept := make([]string, 0, len(tokens))
		for _, token := range tokens {
			base, priority := timetext.SplitPriority(token)
			normalized, err := timetext.NormalizeTime(base)
			if err != nil {
				logger.Warn("slot token dropped", "weekday", weekday, "token", token, "err", err)
				continue
			}
			if priority {
				normalized += "*"
			}
			kept = append(kept, normalized)
		}
		if len(kept) > 0 {
			out[weekday] = kept
		}
	}
	return out
}

// Overlay replaces whole weekdays of the template with the override's
// weekdays. Replacement is wholesale per weekday, never a merge of slot
// lists.
func (t WeeklyTemplate) Overlay(override WeeklyTemplate) WeeklyTemplate {
	out := t.Clone()
	for weekday, slots := range override {
		out[weekday] = append([]string(nil), slots...)
	}
	return out
}

// SlotStore is the subset of the schedule repository the template layer uses.
type SlotStore interface {
	SlotOverrides(ctx context.Context, schema string) (map[int][]string, error)
	SaveSlotOverrides(ctx context.Context, tx pgx.Tx, schema string, overrides map[int][]string) error
	ClearSlotOverrides(ctx context.Context, tx pgx.Tx, schema string) error
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TemplateStore resolves the effective weekly template for a tenant: the
// configured defaults overlaid with whatever the tenant stored.
type TemplateStore struct {
	store    SlotStore
	defaults WeeklyTemplate
	logger   *slog.Logger
}

func NewTemplateStore(store SlotStore, defaults WeeklyTemplate, logger *slog.Logger) *TemplateStore {
	return &TemplateStore{store: store, defaults: defaults.Clone(), logger: logger}
}

// Effective returns defaults overlaid with the tenant's stored overrides.
func (s *TemplateStore) Effective(ctx context.Context, schema string) (WeeklyTemplate, error) {
	raw, err := s.store.SlotOverrides(ctx, schema)
	if err != nil {
		return nil, err
	}
	return s.defaults.Overlay(NormalizeSlots(raw, s.logger)), nil
}

// Save normalizes and persists a slot override in one transaction. The whole
// request is rejected when nothing valid remains after normalization.
func (s *TemplateStore) Save(ctx context.Context, schema string, raw map[int][]string) (WeeklyTemplate, error) {
	normalized := NormalizeSlots(raw, s.logger)
	if len(normalized) == 0 {
		return nil, ErrNoValidSlots
	}
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	if err := s.store.SaveSlotOverrides(ctx, tx, schema, normalized); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return normalized, nil
}

// Reset drops all stored overrides for the tenant.
func (s *TemplateStore) Reset(ctx context.Context, schema string) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := s.store.ClearSlotOverrides(ctx, tx, schema); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
