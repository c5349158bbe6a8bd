package handlers

import (
	"log/slog"
	"net/http"

	"zapisbot/services/booking-service/internal/storage"
)

type AccessHandler struct {
	access *storage.AccessRepository
	logger *slog.Logger
}

func NewAccessHandler(access *storage.AccessRepository, logger *slog.Logger) *AccessHandler {
	return &AccessHandler{access: access, logger: logger}
}

// Status handles GET /api/v1/access: the caller's own access state. It runs
// behind Identify only, so users without a grant can still see where they
// stand.
func (h *AccessHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	hasAccess, err := h.access.HasActiveAccess(r.Context(), id.User.ID)
	if err != nil {
		h.logger.Error("access check failed", "err", err, "tg_id", id.User.TgID)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"has_access": hasAccess,
		"is_admin":   id.IsAdmin,
		"tg_id":      id.User.TgID,
	})
}
