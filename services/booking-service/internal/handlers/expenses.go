package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"zapisbot/services/booking-service/internal/storage"
	"zapisbot/services/booking-service/internal/timetext"
)

type ExpensesHandler struct {
	repo   *storage.ExpensesRepository
	logger *slog.Logger
}

func NewExpensesHandler(repo *storage.ExpensesRepository, logger *slog.Logger) *ExpensesHandler {
	return &ExpensesHandler{repo: repo, logger: logger}
}

// Total handles GET /api/v1/expenses?month=YYYY-MM.
func (h *ExpensesHandler) Total(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	month, err := timetext.NormalizeMonth(r.URL.Query().Get("month"))
	if err != nil {
		http.Error(w, "month is required as YYYY-MM", http.StatusBadRequest)
		return
	}
	total, err := h.repo.TotalForMonth(r.Context(), t.Schema, month)
	if err != nil {
		h.logger.Error("expenses total failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"month": month, "total": total})
}

type addExpenseRequest struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

var errInvalidExpense = errors.New("invalid expense")

// parseExpense validates an add request and returns the canonical month key.
func parseExpense(req addExpenseRequest) (string, error) {
	if req.Amount <= 0 {
		return "", errInvalidExpense
	}
	month, err := timetext.NormalizeMonth(req.Month)
	if err != nil {
		return "", errInvalidExpense
	}
	return month, nil
}

// Add handles POST /api/v1/expenses and returns the month's new total.
func (h *ExpensesHandler) Add(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	var req addExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	month, err := parseExpense(req)
	if err != nil {
		http.Error(w, "month (YYYY-MM) and a positive amount are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.Add(ctx, tx, t.Schema, month, req.Amount); err != nil {
		h.logger.Error("add expense failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	total, err := h.repo.TotalForMonth(ctx, t.Schema, month)
	if err != nil {
		h.logger.Error("expenses total failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "month": month, "total": total})
}

// RemoveLast handles DELETE /api/v1/expenses/last?month=YYYY-MM: undoes the
// most recent entry for the month and returns the new total.
func (h *ExpensesHandler) RemoveLast(w http.ResponseWriter, r *http.Request) {
	t, _ := TenantFromContext(r.Context())
	month, err := timetext.NormalizeMonth(r.URL.Query().Get("month"))
	if err != nil {
		http.Error(w, "month is required as YYYY-MM", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	removed, err := h.repo.RemoveLast(ctx, tx, t.Schema, month)
	if err != nil {
		h.logger.Error("remove last expense failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	total, err := h.repo.TotalForMonth(ctx, t.Schema, month)
	if err != nil {
		h.logger.Error("expenses total failed", "err", err, "schema", t.Schema)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "month": month, "removed": removed, "total": total})
}
