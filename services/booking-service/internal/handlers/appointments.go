package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"zapisbot/services/booking-service/internal/model"
	"zapisbot/services/booking-service/internal/outbox"
	"zapisbot/services/booking-service/internal/prepay"
	"zapisbot/services/booking-service/internal/storage"
	"zapisbot/services/booking-service/internal/timetext"
)

type AppointmentHandler struct {
	repo       *storage.AppointmentRepository
	outboxRepo *outbox.Repository
	prepay     *prepay.Service
	logger     *slog.Logger
}

func NewAppointmentHandler(repo *storage.AppointmentRepository, outboxRepo *outbox.Repository, prepaySvc *prepay.Service, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{repo: repo, outboxRepo: outboxRepo, prepay: prepaySvc, logger: logger}
}

type appointmentRequest struct {
	Name       string  `json:"name"`
	Contact    string  `json:"contact"`
	Time       string  `json:"time"`
	Day        string  `json:"day"`
	Prepayment float64 `json:"prepayment"`
}

type appointmentItem struct {
	model.Appointment
	PrepaymentDisplay string `json:"prepayment_display"`
}

func toItem(a model.Appointment) appointmentItem {
	return appointmentItem{Appointment: a, PrepaymentDisplay: timetext.FormatPrepayment(a.Prepayment)}
}

func toItems(appts []model.Appointment) []appointmentItem {
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toItem(a))
	}
	return items
}

// parseAppointment validates and normalizes the request body into a model.
func parseAppointment(r *http.Request) (model.Appointment, string, bool) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return model.Appointment{}, "invalid json body", false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Contact = strings.TrimSpace(req.Contact)
	if req.Name == "" || req.Contact == "" {
		return model.Appointment{}, "name and contact are required", false
	}
	normTime, err := timetext.NormalizeTime(req.Time)
	if err != nil {
		return model.Appointment{}, "invalid time", false
	}
	normDay, err := timetext.NormalizeDate(req.Day)
	if err != nil {
		return model.Appointment{}, "invalid day", false
	}
	if req.Prepayment < 0 {
		return model.Appointment{}, "prepayment must not be negative", false
	}
	return model.Appointment{
		Name:       req.Name,
		Contact:    req.Contact,
		Time:       normTime,
		Day:        normDay,
		Prepayment: req.Prepayment,
	}, "", true
}

// ListByRange handles GET /api/v1/appointments?start=...&end=...
func (h *AppointmentHandler) ListByRange(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	start, err := timetext.NormalizeDate(r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}
	end, err := timetext.NormalizeDate(r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, "invalid end", http.StatusBadRequest)
		return
	}
	appts, err := h.repo.ByRange(r.Context(), t.Schema, start, end)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": toItems(appts)})
}

// ListByDay handles GET /api/v1/appointments/day?date=...
func (h *AppointmentHandler) ListByDay(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	day, err := timetext.NormalizeDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	appts, err := h.repo.ByDay(r.Context(), t.Schema, day)
	if err != nil {
		h.logger.Error("list day appointments failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": toItems(appts)})
}

// MarkedDays handles GET /api/v1/appointments/marked-days?year=...&month=...
func (h *AppointmentHandler) MarkedDays(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	year, month, ok := yearMonth(w, r)
	if !ok {
		return
	}
	days, err := h.repo.BookedDays(r.Context(), t.Schema, year, month)
	if err != nil {
		h.logger.Error("marked days failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// Create handles POST /api/v1/appointments.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	appt, msg, ok := parseAppointment(r)
	if !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.Create(ctx, tx, t.Schema, &appt); err != nil {
		h.logger.Error("create appointment failed", "err", err, "schema", t.Schema)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	if err := h.insertEvent(ctx, tx, t.Schema, t.OwnerTgID, outbox.EventAppointmentBooked, appt); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"appointment": toItem(appt)}
	if h.prepay.Collectable(appt) {
		if link, err := h.prepay.CheckoutLink(ctx, t.Schema, appt); err == nil {
			resp["prepayment_url"] = link
		} else {
			h.logger.Warn("prepayment link unavailable", "err", err, "schema", t.Schema)
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Update handles PUT /api/v1/appointments/{id}.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, msg, ok := parseAppointment(r)
	if !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	appt.ID = id

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updated, err := h.repo.Update(ctx, tx, t.Schema, appt)
	if err != nil {
		h.logger.Error("update appointment failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if !updated {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointment": toItem(appt)})
}

// Delete handles DELETE /api/v1/appointments/{id}.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	h.cancel(w, r, t.Schema, t.OwnerTgID, func(ctx context.Context, tx pgx.Tx) (model.Appointment, error) {
		return h.repo.GetForUpdate(ctx, tx, t.Schema, id)
	})
}

// DeleteByContact handles DELETE /api/v1/appointments/by-contact?contact=...
// Removes the earliest appointment for the contact.
func (h *AppointmentHandler) DeleteByContact(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	contact := strings.TrimSpace(r.URL.Query().Get("contact"))
	if contact == "" {
		http.Error(w, "contact is required", http.StatusBadRequest)
		return
	}
	h.cancel(w, r, t.Schema, t.OwnerTgID, func(ctx context.Context, tx pgx.Tx) (model.Appointment, error) {
		return h.repo.FirstByContactForUpdate(ctx, tx, t.Schema, contact)
	})
}

// cancel deletes one appointment and records the cancelled event in the same
// transaction. The lookup locks the row so the event payload matches what is
// removed.
func (h *AppointmentHandler) cancel(w http.ResponseWriter, r *http.Request, schema string, ownerTgID int64,
	lookup func(context.Context, pgx.Tx) (model.Appointment, error)) {

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := lookup(ctx, tx)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load appointment failed", "err", err, "schema", schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	if _, err := h.repo.DeleteByID(ctx, tx, schema, appt.ID); err != nil {
		h.logger.Error("delete appointment failed", "err", err, "schema", schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if err := h.insertEvent(ctx, tx, schema, ownerTgID, outbox.EventAppointmentCancelled, appt); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "appointment": toItem(appt)})
}

func (h *AppointmentHandler) insertEvent(ctx context.Context, tx pgx.Tx, schema string, ownerTgID int64, eventType string, appt model.Appointment) error {
	payload, err := json.Marshal(outbox.AppointmentEvent{
		AppointmentID: appt.ID,
		OwnerTgID:     ownerTgID,
		Schema:        schema,
		Name:          appt.Name,
		Contact:       appt.Contact,
		Time:          appt.Time,
		Day:           appt.Day,
		Prepayment:    appt.Prepayment,
	})
	if err != nil {
		return err
	}
	err = h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   schema + "/" + strconv.FormatInt(appt.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	})
	if err != nil {
		h.logger.Error("outbox insert failed", "err", err, "schema", schema)
	}
	return err
}

// yearMonth parses the calendar month shared by the calendar endpoints,
// either as month=YYYY-MM or as separate year and month params.
func yearMonth(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	rawMonth := r.URL.Query().Get("month")
	rawYear := r.URL.Query().Get("year")
	if before, after, found := strings.Cut(rawMonth, "-"); found {
		rawYear, rawMonth = before, after
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil || year < 1 {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return 0, 0, false
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return 0, 0, false
	}
	return year, month, true
}
