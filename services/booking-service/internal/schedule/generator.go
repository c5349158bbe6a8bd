package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"zapisbot/services/booking-service/internal/model"
	"zapisbot/services/booking-service/internal/timetext"
)

// DefaultBufferMinutes is the gap required between a template slot and an
// existing appointment before the slot is offered.
const DefaultBufferMinutes = 90

var shortWeekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DaySelections reads which days of a month the tenant marked as working days.
type DaySelections interface {
	SelectedDays(ctx context.Context, schema string, year, month int) ([]int, error)
}

// DayBookings reads the appointments of one day.
type DayBookings interface {
	ByDay(ctx context.Context, schema, day string) ([]model.Appointment, error)
}

// TemplateSource resolves the tenant's effective weekly template.
type TemplateSource interface {
	Effective(ctx context.Context, schema string) (WeeklyTemplate, error)
}

// Generator produces the publishable schedule text for a month.
type Generator struct {
	Selections    DaySelections
	Bookings      DayBookings
	Templates     TemplateSource
	BufferMinutes int
	Logger        *slog.Logger
}

func NewGenerator(selections DaySelections, bookings DayBookings, templates TemplateSource, bufferMinutes int, logger *slog.Logger) *Generator {
	if bufferMinutes <= 0 {
		bufferMinutes = DefaultBufferMinutes
	}
	return &Generator{
		Selections:    selections,
		Bookings:      bookings,
		Templates:     templates,
		BufferMinutes: bufferMinutes,
		Logger:        logger,
	}
}

// Generate renders one line per selected day of the month, listing open slots
// and striking through booked times. An optional override replaces whole
// weekdays of the effective template for this run only. A month with no
// selected days yields an empty result, not an error.
func (g *Generator) Generate(ctx context.Context, schema string, year, month int, override map[int][]string) ([]string, error) {
	days, err := g.Selections.SelectedDays(ctx, schema, year, month)
	if err != nil {
		return nil, fmt.Errorf("load selected days: %w", err)
	}
	if len(days) == 0 {
		return []string{}, nil
	}
	sort.Ints(days)

	templ, err := g.Templates.Effective(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("load slot template: %w", err)
	}
	if override != nil {
		if o := NormalizeSlots(override, g.Logger); len(o) > 0 {
			templ = templ.Overlay(o)
		}
	}

	lines := []string{fmt.Sprintf("Schedule for %s:", time.Month(month).String()), ""}
	for _, day := range days {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		weekday := (int(date.Weekday()) + 6) % 7 // Monday = 0
		slots := templ[weekday]
		if len(slots) == 0 {
			continue
		}

		booked, err := g.bookedTimes(ctx, schema, date.Format("2006-01-02"))
		if err != nil {
			return nil, err
		}
		tokens := g.dayTokens(slots, booked)
		lines = append(lines,
			fmt.Sprintf("%02d.%02d (%s) %s", day, month, shortWeekdays[weekday], strings.Join(tokens, " ")),
			"")
	}
	return lines, nil
}

// bookedTimes normalizes the day's appointment times into a set. Stored times
// that fail normalization cannot match any slot; they are logged and skipped.
func (g *Generator) bookedTimes(ctx context.Context, schema, day string) (map[string]bool, error) {
	appts, err := g.Bookings.ByDay(ctx, schema, day)
	if err != nil {
		return nil, fmt.Errorf("load appointments for %s: %w", day, err)
	}
	booked := make(map[string]bool, len(appts))
	for _, a := range appts {
		normalized, err := timetext.NormalizeTime(a.Time)
		if err != nil {
			g.Logger.Warn("stored appointment time does not normalize",
				"schema", schema, "appointment_id", a.ID, "time", a.Time)
			continue
		}
		booked[normalized] = true
	}
	return booked, nil
}

// dayTokens merges template slots with booked times into display tokens.
// Booked times always appear struck through. Open slots within the buffer of
// any booked time are suppressed; the priority marker survives only as a
// display suffix and grants no exemption.
func (g *Generator) dayTokens(slots []string, booked map[string]bool) []string {
	priority := make(map[string]bool, len(slots))
	candidates := make(map[string]bool, len(slots)+len(booked))
	for _, token := range slots {
		base, prio := timetext.SplitPriority(token)
		if _, ok := timetext.Minutes(base); !ok {
			continue
		}
		candidates[base] = true
		if prio {
			priority[base] = true
		}
	}
	for t := range booked {
		candidates[t] = true
	}

	times := make([]string, 0, len(candidates))
	for t := range candidates {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool {
		mi, _ := timetext.Minutes(times[i])
		mj, _ := timetext.Minutes(times[j])
		return mi < mj
	})

	tokens := make([]string, 0, len(times))
	for _, t := range times {
		display := timetext.DotTime(t)
		if priority[t] {
			display += "*"
		}
		if booked[t] {
			tokens = append(tokens, "<s>"+display+"</s>")
			continue
		}
		if g.nearBooked(t, booked) {
			continue
		}
		tokens = append(tokens, display)
	}
	return tokens
}

func (g *Generator) nearBooked(slot string, booked map[string]bool) bool {
	sm, ok := timetext.Minutes(slot)
	if !ok {
		return false
	}
	for t := range booked {
		bm, ok := timetext.Minutes(t)
		if !ok {
			continue
		}
		diff := sm - bm
		if diff < 0 {
			diff = -diff
		}
		if diff <= g.BufferMinutes {
			return true
		}
	}
	return false
}
