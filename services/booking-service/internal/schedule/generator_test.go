package schedule

import (
	"context"
	"log/slog"
	"reflect"
	"testing"

	"zapisbot/services/booking-service/internal/model"
)

type fakeSelections struct {
	days []int
}

func (f fakeSelections) SelectedDays(ctx context.Context, schema string, year, month int) ([]int, error) {
	return f.days, nil
}

type fakeBookings struct {
	byDay map[string][]model.Appointment
}

func (f fakeBookings) ByDay(ctx context.Context, schema, day string) ([]model.Appointment, error) {
	return f.byDay[day], nil
}

type fakeTemplates struct {
	templ WeeklyTemplate
}

func (f fakeTemplates) Effective(ctx context.Context, schema string) (WeeklyTemplate, error) {
	return f.templ.Clone(), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestGenerator(days []int, bookings map[string][]model.Appointment, templ WeeklyTemplate, buffer int) *Generator {
	return NewGenerator(
		fakeSelections{days: days},
		fakeBookings{byDay: bookings},
		fakeTemplates{templ: templ},
		buffer,
		testLogger(),
	)
}

// 2026-03-16 is a Monday.
const march2026Monday = 16

func mondayOnlyTemplate(slots ...string) WeeklyTemplate {
	return WeeklyTemplate{0: slots}
}

func TestGenerateOpenDay(t *testing.T) {
	g := newTestGenerator(
		[]int{march2026Monday},
		nil,
		mondayOnlyTemplate("11:00", "14:00", "17:00", "20:00*"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := []string{
		"Schedule for March:",
		"",
		"16.03 (Mon) 11.00 14.00 17.00 20.00*",
		"",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("Generate = %q, want %q", lines, want)
	}
}

func TestGenerateStrikesBookedAndKeepsDistantSlots(t *testing.T) {
	g := newTestGenerator(
		[]int{march2026Monday},
		map[string][]model.Appointment{
			"2026-03-16": {{ID: 1, Name: "Ann", Contact: "@ann", Time: "14:00", Day: "2026-03-16"}},
		},
		mondayOnlyTemplate("11:00", "14:00", "17:00", "20:00*"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := "16.03 (Mon) 11.00 <s>14.00</s> 17.00 20.00*"
	if lines[2] != want {
		t.Fatalf("day line = %q, want %q", lines[2], want)
	}
}

func TestGenerateSuppressesSlotsWithinBuffer(t *testing.T) {
	g := newTestGenerator(
		[]int{march2026Monday},
		map[string][]model.Appointment{
			"2026-03-16": {{ID: 1, Time: "14:00", Day: "2026-03-16"}},
		},
		mondayOnlyTemplate("13:00", "14:00", "15:00", "17:00"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// 13:00 and 15:00 are 60 min from the booking and must disappear.
	want := "16.03 (Mon) <s>14.00</s> 17.00"
	if lines[2] != want {
		t.Fatalf("day line = %q, want %q", lines[2], want)
	}
}

func TestGenerateBufferIsInclusive(t *testing.T) {
	g := newTestGenerator(
		[]int{march2026Monday},
		map[string][]model.Appointment{
			"2026-03-16": {{ID: 1, Time: "14:00", Day: "2026-03-16"}},
		},
		mondayOnlyTemplate("12:30", "14:00", "15:30", "15:31"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// Exactly 90 minutes away is still suppressed; 91 minutes is offered.
	want := "16.03 (Mon) <s>14.00</s> 15.31"
	if lines[2] != want {
		t.Fatalf("day line = %q, want %q", lines[2], want)
	}
}

func TestGeneratePriorityMarkerDoesNotBypassBuffer(t *testing.T) {
	g := newTestGenerator(
		[]int{march2026Monday},
		map[string][]model.Appointment{
			"2026-03-16": {{ID: 1, Time: "19:00", Day: "2026-03-16"}},
		},
		mondayOnlyTemplate("11:00", "20:00*"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := "16.03 (Mon) 11.00 <s>19.00</s>"
	if lines[2] != want {
		t.Fatalf("day line = %q, want %q", lines[2], want)
	}
}

func TestGenerateBookedTimeOutsideTemplateIsShownStruck(t *testing.T) {
	g := newTestGenerator(
		[]int{march2026Monday},
		map[string][]model.Appointment{
			"2026-03-16": {{ID: 1, Time: "08:15", Day: "2026-03-16"}},
		},
		mondayOnlyTemplate("11:00", "14:00"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := "16.03 (Mon) <s>08.15</s> 11.00 14.00"
	if lines[2] != want {
		t.Fatalf("day line = %q, want %q", lines[2], want)
	}
}

func TestGenerateSkipsDaysWithEmptyWeekdayTemplate(t *testing.T) {
	// Template covers Monday only; the 17th is a Tuesday and must not appear.
	g := newTestGenerator(
		[]int{march2026Monday, march2026Monday + 1},
		nil,
		mondayOnlyTemplate("11:00"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected header plus one day, got %q", lines)
	}
	if lines[2] != "16.03 (Mon) 11.00" {
		t.Fatalf("day line = %q", lines[2])
	}
}

func TestGenerateEmptySelectionYieldsEmptyResult(t *testing.T) {
	g := newTestGenerator(nil, nil, DefaultTemplate(), 90)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty schedule, got %q", lines)
	}
}

func TestGenerateDaysOrderedAscending(t *testing.T) {
	g := newTestGenerator(
		[]int{2, 9, 23},
		nil,
		mondayOnlyTemplate("11:00"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := []string{
		"Schedule for March:",
		"",
		"02.03 (Mon) 11.00",
		"",
		"09.03 (Mon) 11.00",
		"",
		"23.03 (Mon) 11.00",
		"",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("Generate = %q, want %q", lines, want)
	}
}

func TestGenerateOverrideReplacesWeekdayForThisRunOnly(t *testing.T) {
	templates := fakeTemplates{templ: mondayOnlyTemplate("11:00", "14:00")}
	g := NewGenerator(
		fakeSelections{days: []int{march2026Monday}},
		fakeBookings{},
		templates,
		90,
		testLogger(),
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, map[int][]string{0: {"9"}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if lines[2] != "16.03 (Mon) 09.00" {
		t.Fatalf("override not applied: %q", lines[2])
	}
	if got := templates.templ[0]; !reflect.DeepEqual(got, []string{"11:00", "14:00"}) {
		t.Fatalf("stored template mutated by override: %q", got)
	}
}

func TestGenerateMalformedStoredTimeIsUnmatchable(t *testing.T) {
	g := newTestGenerator(
		[]int{march2026Monday},
		map[string][]model.Appointment{
			"2026-03-16": {{ID: 1, Time: "junk", Day: "2026-03-16"}},
		},
		mondayOnlyTemplate("11:00"),
		90,
	)

	lines, err := g.Generate(context.Background(), "user_1", 2026, 3, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if lines[2] != "16.03 (Mon) 11.00" {
		t.Fatalf("malformed stored time affected output: %q", lines[2])
	}
}
