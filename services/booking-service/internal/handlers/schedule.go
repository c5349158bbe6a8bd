package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"zapisbot/services/booking-service/internal/schedule"
	"zapisbot/services/booking-service/internal/storage"
)

type ScheduleHandler struct {
	repo      *storage.ScheduleRepository
	templates *schedule.TemplateStore
	generator *schedule.Generator
	logger    *slog.Logger
}

func NewScheduleHandler(repo *storage.ScheduleRepository, templates *schedule.TemplateStore, generator *schedule.Generator, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{repo: repo, templates: templates, generator: generator, logger: logger}
}

// SelectedDays handles GET /api/v1/schedule/selected?year=...&month=...
func (h *ScheduleHandler) SelectedDays(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}
	days, err := h.repo.SelectedDays(r.Context(), t.Schema, year, month)
	if err != nil {
		h.logger.Error("selected days failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

type toggleDayRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ToggleDay handles POST /api/v1/schedule/toggle.
func (h *ScheduleHandler) ToggleDay(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	var req toggleDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Year < 1 || req.Month < 1 || req.Month > 12 || req.Day < 1 || req.Day > 31 {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	selected, err := schedule.ToggleDay(ctx, tx, h.repo, t.Schema, req.Year, req.Month, req.Day)
	if err != nil {
		h.logger.Error("toggle day failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": selected})
}

type generateRequest struct {
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Override map[int][]string `json:"override,omitempty"`
}

// Generate handles POST /api/v1/schedule/generate.
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Year < 1 || req.Month < 1 || req.Month > 12 {
		http.Error(w, "invalid year or month", http.StatusBadRequest)
		return
	}

	lines, err := h.generator.Generate(r.Context(), t.Schema, req.Year, req.Month, req.Override)
	if err != nil {
		h.logger.Error("schedule generation failed", "err", err, "schema", t.Schema)
		http.Error(w, "schedule generation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}

// Slots handles GET /api/v1/schedule/slots: the effective weekly template.
func (h *ScheduleHandler) Slots(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	templ, err := h.templates.Effective(r.Context(), t.Schema)
	if err != nil {
		h.logger.Error("load template failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": templateToJSON(templ)})
}

type saveSlotsRequest struct {
	Slots map[int][]string `json:"slots"`
}

// SaveSlots handles POST /api/v1/schedule/slots: wholesale per-weekday
// override of the template.
func (h *ScheduleHandler) SaveSlots(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	var req saveSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req.Slots) == 0 {
		http.Error(w, "slots are required", http.StatusBadRequest)
		return
	}

	saved, err := h.templates.Save(r.Context(), t.Schema, req.Slots)
	if err != nil {
		if errors.Is(err, schedule.ErrNoValidSlots) {
			http.Error(w, "no valid slots in request", http.StatusBadRequest)
			return
		}
		h.logger.Error("save slots failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": templateToJSON(saved)})
}

// ResetSlots handles POST /api/v1/schedule/slots/reset.
func (h *ScheduleHandler) ResetSlots(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	if err := h.templates.Reset(r.Context(), t.Schema); err != nil {
		h.logger.Error("reset slots failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

// templateToJSON keys the template by string weekday so the JSON shape is
// stable ("0".."6").
func templateToJSON(t schedule.WeeklyTemplate) map[string][]string {
	out := make(map[string][]string, len(t))
	for weekday, slots := range t {
		out[strconv.Itoa(weekday)] = slots
	}
	return out
}
