package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"

	"zapisbot/services/booking-service/internal/storage"
	"zapisbot/services/booking-service/internal/tenant"
)

// AdminHandler serves the operator console: user listing, access grants and
// admin promotion. Every mutation lands in the audit log inside the same
// transaction.
type AdminHandler struct {
	users       *storage.UserRepository
	access      *storage.AccessRepository
	admins      *storage.AdminRepository
	provisioner *tenant.Provisioner
	logger      *slog.Logger
}

func NewAdminHandler(users *storage.UserRepository, access *storage.AccessRepository, admins *storage.AdminRepository, provisioner *tenant.Provisioner, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{users: users, access: access, admins: admins, provisioner: provisioner, logger: logger}
}

// ListUsers handles GET /api/v1/admin/users?limit=...&offset=...
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list users failed", "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type adminTargetRequest struct {
	TgID int64 `json:"tg_id"`
}

type adminAction struct {
	name string
	// run performs the mutation and returns whether it changed anything.
	run func(ctx context.Context, tx pgx.Tx, adminID, targetID int64) (bool, error)
}

// apply resolves the target user, runs the action in one transaction and
// writes the audit record.
func (h *AdminHandler) apply(w http.ResponseWriter, r *http.Request, action adminAction) {
	id, _ := IdentityFromContext(r.Context())

	var req adminTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TgID == 0 {
		http.Error(w, "tg_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	target, err := h.users.GetByTgID(ctx, req.TgID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	tx, err := h.users.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	changed, err := action.run(ctx, tx, id.User.ID, target.ID)
	if err != nil {
		h.logger.Error("admin action failed", "err", err, "action", action.name, "target_tg_id", req.TgID)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	payload, _ := json.Marshal(map[string]any{"target_tg_id": req.TgID, "changed": changed})
	if err := h.admins.RecordAudit(ctx, tx, id.User.ID, action.name, payload); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

// GrantAccess handles POST /api/v1/admin/access/grant. The target's schema is
// provisioned eagerly so their first visit is instant.
func (h *AdminHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, adminAction{
		name: "access.grant",
		run: func(ctx context.Context, tx pgx.Tx, adminID, targetID int64) (bool, error) {
			granted, err := h.access.Grant(ctx, tx, targetID, adminID)
			if err != nil || !granted {
				return granted, err
			}
			target, err := h.users.GetByID(ctx, targetID)
			if err != nil {
				return false, err
			}
			schema := target.SchemaName
			if schema == "" {
				schema = tenant.SchemaFor(target.TgID)
				if _, err := h.users.AssignSchemaOnce(ctx, tx, targetID, schema); err != nil {
					return false, err
				}
			}
			return true, h.provisioner.EnsureSchema(ctx, schema)
		},
	})
}

// RevokeAccess handles POST /api/v1/admin/access/revoke. The tenant schema
// and its data stay in place; only the grant is closed.
func (h *AdminHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, adminAction{
		name: "access.revoke",
		run: func(ctx context.Context, tx pgx.Tx, adminID, targetID int64) (bool, error) {
			return h.access.Revoke(ctx, tx, targetID)
		},
	})
}

// Promote handles POST /api/v1/admin/promote.
func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, adminAction{
		name: "admin.promote",
		run: func(ctx context.Context, tx pgx.Tx, adminID, targetID int64) (bool, error) {
			return h.admins.Promote(ctx, tx, targetID, adminID)
		},
	})
}

// Demote handles POST /api/v1/admin/demote. Admins cannot demote themselves,
// so the system always keeps at least the acting admin.
func (h *AdminHandler) Demote(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	h.apply(w, r, adminAction{
		name: "admin.demote",
		run: func(ctx context.Context, tx pgx.Tx, adminID, targetID int64) (bool, error) {
			if targetID == id.User.ID {
				return false, nil
			}
			return h.admins.Demote(ctx, tx, targetID)
		},
	})
}
