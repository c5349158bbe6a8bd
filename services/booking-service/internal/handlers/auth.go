package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"zapisbot/libs/tgauth"
	"zapisbot/services/booking-service/internal/model"
	"zapisbot/services/booking-service/internal/storage"
	"zapisbot/services/booking-service/internal/tenant"
)

// InitDataHeader carries the raw Telegram WebApp init data from the front end.
const InitDataHeader = "X-Telegram-Init-Data"

type identityKey struct{}
type tenantKey struct{}

// Identity is the authenticated caller, resolved once per request.
type Identity struct {
	User    model.User
	IsAdmin bool
}

// IdentityFromContext returns the identity stashed by Identify.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// TenantFromContext returns the tenant handle stashed by RequireTenant.
func TenantFromContext(ctx context.Context) (tenant.Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(tenant.Tenant)
	return t, ok
}

// Auth authenticates Telegram WebApp callers and resolves their tenant. The
// bootstrap admin lists come from configuration; accounts on them are
// promoted and granted access on first contact.
type Auth struct {
	Users              *storage.UserRepository
	Access             *storage.AccessRepository
	Admins             *storage.AdminRepository
	Provisioner        *tenant.Provisioner
	BotToken           string
	BootstrapIDs       map[int64]bool
	BootstrapUsernames map[string]bool
	Logger             *slog.Logger
}

// Identify verifies the init-data signature, upserts the user row and stashes
// the caller identity. It does not require an access grant; GET /access and
// admin routes work for users who have none.
func (a *Auth) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tgUser, err := tgauth.VerifiedUser(r.Header.Get(InitDataHeader), a.BotToken)
		if err != nil {
			http.Error(w, "invalid telegram init data", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		tx, err := a.Users.Begin(ctx)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = tx.Rollback(ctx) }()

		user, err := a.Users.Upsert(ctx, tx, tgUser.ID, tgUser.Username, tgUser.FirstName, tgUser.LastName)
		if err != nil {
			a.Logger.Error("user upsert failed", "err", err, "tg_id", tgUser.ID)
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		if a.BootstrapIDs[user.TgID] || (user.Username != "" && a.BootstrapUsernames[user.Username]) {
			if _, err := a.Admins.Promote(ctx, tx, user.ID, user.ID); err != nil {
				a.Logger.Error("bootstrap promote failed", "err", err, "tg_id", user.TgID)
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
			if _, err := a.Access.Grant(ctx, tx, user.ID, user.ID); err != nil {
				a.Logger.Error("bootstrap grant failed", "err", err, "tg_id", user.TgID)
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
		}

		if err := tx.Commit(ctx); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		isAdmin, err := a.Admins.IsAdmin(ctx, user.ID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		ctx = context.WithValue(ctx, identityKey{}, Identity{User: user, IsAdmin: isAdmin})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTenant checks the access grant and lazily provisions the tenant
// schema, then stashes the tenant handle. Must run after Identify.
func (a *Auth) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		hasAccess, err := a.Access.HasActiveAccess(ctx, id.User.ID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if !hasAccess {
			http.Error(w, "access not granted", http.StatusForbidden)
			return
		}

		t, err := a.resolveTenant(ctx, id.User)
		if err != nil {
			a.Logger.Error("tenant provisioning failed", "err", err, "tg_id", id.User.TgID)
			http.Error(w, "tenant provisioning failed", http.StatusInternalServerError)
			return
		}

		ctx = context.WithValue(ctx, tenantKey{}, t)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates the admin console routes. Must run after Identify.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			http.Error(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		if !id.IsAdmin {
			http.Error(w, "admin only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveTenant returns the user's schema, provisioning and recording it on
// first use. The recorded name wins over the derived one so an account whose
// schema was assigned earlier keeps it forever.
func (a *Auth) resolveTenant(ctx context.Context, user model.User) (tenant.Tenant, error) {
	schema := user.SchemaName
	if schema == "" {
		derived := tenant.SchemaFor(user.TgID)
		if err := a.Provisioner.EnsureSchema(ctx, derived); err != nil {
			return tenant.Tenant{}, err
		}
		tx, err := a.Users.Begin(ctx)
		if err != nil {
			return tenant.Tenant{}, err
		}
		defer func() { _ = tx.Rollback(ctx) }()
		if schema, err = a.Users.AssignSchemaOnce(ctx, tx, user.ID, derived); err != nil {
			return tenant.Tenant{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return tenant.Tenant{}, err
		}
	}
	return tenant.Tenant{OwnerTgID: user.TgID, Schema: schema}, nil
}
