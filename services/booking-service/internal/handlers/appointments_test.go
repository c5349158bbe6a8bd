package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"zapisbot/services/booking-service/internal/model"
)

func TestParseAppointmentNormalizesFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/appointments",
		strings.NewReader(`{"name":" Ann ","contact":"@ann","time":"14.30","day":"15.03.2026","prepayment":500}`))

	appt, msg, ok := parseAppointment(r)
	if !ok {
		t.Fatalf("parseAppointment rejected valid body: %s", msg)
	}
	if appt.Name != "Ann" || appt.Contact != "@ann" {
		t.Fatalf("fields not trimmed: %+v", appt)
	}
	if appt.Time != "14:30" {
		t.Fatalf("time not normalized: %q", appt.Time)
	}
	if appt.Day != "2026-03-15" {
		t.Fatalf("day not normalized: %q", appt.Day)
	}
}

func TestParseAppointmentRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing name", `{"contact":"@ann","time":"14:00","day":"2026-03-15"}`},
		{"missing contact", `{"name":"Ann","time":"14:00","day":"2026-03-15"}`},
		{"bad time", `{"name":"Ann","contact":"@ann","time":"25:00","day":"2026-03-15"}`},
		{"bad day", `{"name":"Ann","contact":"@ann","time":"14:00","day":"soon"}`},
		{"negative prepayment", `{"name":"Ann","contact":"@ann","time":"14:00","day":"2026-03-15","prepayment":-5}`},
	}
	for _, c := range cases {
		r := httptest.NewRequest("POST", "/api/v1/appointments", strings.NewReader(c.body))
		if _, _, ok := parseAppointment(r); ok {
			t.Errorf("%s: expected rejection", c.name)
		}
	}
}

func TestAppointmentItemCarriesPrepaymentDisplay(t *testing.T) {
	raw, err := json.Marshal(toItem(model.Appointment{
		ID: 1, Name: "Ann", Contact: "@ann", Time: "14:00", Day: "2026-03-15", Prepayment: 1,
	}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["prepayment_display"] != "✓" {
		t.Fatalf("prepayment_display = %v, want ✓", decoded["prepayment_display"])
	}
}

func TestYearMonthValidation(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/v1/appointments/marked-days?year=2026&month=3", nil)
	year, month, ok := yearMonth(w, r)
	if !ok || year != 2026 || month != 3 {
		t.Fatalf("yearMonth = %d, %d, %v", year, month, ok)
	}

	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("GET", "/api/v1/schedule/selected?month=2026-03", nil)
	year, month, ok = yearMonth(w2, r2)
	if !ok || year != 2026 || month != 3 {
		t.Fatalf("yearMonth(month=2026-03) = %d, %d, %v", year, month, ok)
	}

	for _, q := range []string{"year=2026", "year=2026&month=13", "year=0&month=1", "month=1"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/x?"+q, nil)
		if _, _, ok := yearMonth(w, r); ok {
			t.Errorf("yearMonth accepted %q", q)
		}
		if w.Code != 400 {
			t.Errorf("yearMonth(%q) wrote status %d, want 400", q, w.Code)
		}
	}
}
