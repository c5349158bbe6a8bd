package schedule

import (
	"reflect"
	"testing"
)

func TestDefaultTemplateCoversAllWeekdays(t *testing.T) {
	templ := DefaultTemplate()
	for wd := 0; wd <= 6; wd++ {
		if len(templ[wd]) == 0 {
			t.Fatalf("weekday %d has no default slots", wd)
		}
	}
	if !reflect.DeepEqual(templ[0], []string{"11:00", "14:00", "17:00", "20:00*"}) {
		t.Fatalf("unexpected weekday slots: %q", templ[0])
	}
	if !reflect.DeepEqual(templ[6], []string{"10:00", "13:00", "16:00", "19:00*"}) {
		t.Fatalf("unexpected weekend slots: %q", templ[6])
	}
}

func TestDefaultTemplateReturnsFreshCopies(t *testing.T) {
	a := DefaultTemplate()
	a[0][0] = "00:00"
	if b := DefaultTemplate(); b[0][0] != "11:00" {
		t.Fatal("DefaultTemplate shares state between calls")
	}
}

func TestNormalizeSlotsKeepsValidDropsInvalid(t *testing.T) {
	got := NormalizeSlots(map[int][]string{
		0: {"9", "25:00", "18-30*"},
		1: {"abc", "99:99"},
		9: {"10:00"},
	}, testLogger())

	want := WeeklyTemplate{0: {"09:00", "18:30*"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeSlots = %v, want %v", got, want)
	}
}

func TestOverlayReplacesWholeWeekday(t *testing.T) {
	base := DefaultTemplate()
	merged := base.Overlay(WeeklyTemplate{0: {"09:00"}})

	if !reflect.DeepEqual(merged[0], []string{"09:00"}) {
		t.Fatalf("weekday 0 not replaced wholesale: %q", merged[0])
	}
	if !reflect.DeepEqual(merged[1], base[1]) {
		t.Fatalf("untouched weekday changed: %q", merged[1])
	}
	if !reflect.DeepEqual(base[0], []string{"11:00", "14:00", "17:00", "20:00*"}) {
		t.Fatal("Overlay mutated its receiver")
	}
}
