package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"zapisbot/libs/config"
	"zapisbot/libs/db"
	"zapisbot/libs/httpx"
	"zapisbot/libs/kafkax"
	otelx "zapisbot/libs/otel"
	"zapisbot/libs/runtime"
	"zapisbot/services/booking-service/internal/handlers"
	"zapisbot/services/booking-service/internal/outbox"
	"zapisbot/services/booking-service/internal/prepay"
	"zapisbot/services/booking-service/internal/schedule"
	"zapisbot/services/booking-service/internal/storage"
	"zapisbot/services/booking-service/internal/tenant"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	botToken, err := config.RequiredString("BOT_TOKEN")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.EnsurePublicTables(ctx, pool); err != nil {
		logger.Error("schema bootstrap failed", "err", err)
		panic(err)
	}

	users := storage.NewUserRepository(pool)
	access := storage.NewAccessRepository(pool)
	admins := storage.NewAdminRepository(pool)
	appointments := storage.NewAppointmentRepository(pool)
	scheduleRepo := storage.NewScheduleRepository(pool)
	expenses := storage.NewExpensesRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	provisioner := tenant.NewProvisioner(pool, logger)

	templates := schedule.NewTemplateStore(scheduleRepo, schedule.DefaultTemplate(), logger)
	generator := schedule.NewGenerator(scheduleRepo, appointments, templates,
		config.Int("SCHEDULE_BUFFER_MINUTES", schedule.DefaultBufferMinutes), logger)

	prepaySvc := prepay.New(prepay.Config{
		SecretKey:  config.String("STRIPE_SECRET_KEY", ""),
		Currency:   config.String("STRIPE_CURRENCY", "eur"),
		SuccessURL: config.String("STRIPE_SUCCESS_URL", ""),
		CancelURL:  config.String("STRIPE_CANCEL_URL", ""),
	}, logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	authn := &handlers.Auth{
		Users:              users,
		Access:             access,
		Admins:             admins,
		Provisioner:        provisioner,
		BotToken:           botToken,
		BootstrapIDs:       config.Int64Set("ADMIN_TG_IDS"),
		BootstrapUsernames: usernameSet(config.List("ADMIN_TG_USERNAMES", "")),
		Logger:             logger,
	}
	accessHandler := handlers.NewAccessHandler(access, logger)
	apptHandler := handlers.NewAppointmentHandler(appointments, outboxRepo, prepaySvc, logger)
	schedHandler := handlers.NewScheduleHandler(scheduleRepo, templates, generator, logger)
	adminHandler := handlers.NewAdminHandler(users, access, admins, provisioner, logger)
	expensesHandler := handlers.NewExpensesHandler(expenses, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	identified := func(fn http.HandlerFunc) http.Handler {
		return authn.Identify(fn)
	}
	protected := func(fn http.HandlerFunc) http.Handler {
		return authn.Identify(authn.RequireTenant(fn))
	}
	adminOnly := func(fn http.HandlerFunc) http.Handler {
		return authn.Identify(authn.RequireAdmin(fn))
	}

	mux.Handle("GET /api/v1/access", identified(accessHandler.Status))

	mux.Handle("GET /api/v1/appointments", protected(apptHandler.ListByRange))
	mux.Handle("GET /api/v1/appointments/day", protected(apptHandler.ListByDay))
	mux.Handle("GET /api/v1/appointments/marked-days", protected(apptHandler.MarkedDays))
	mux.Handle("POST /api/v1/appointments", protected(apptHandler.Create))
	mux.Handle("PUT /api/v1/appointments/{id}", protected(apptHandler.Update))
	mux.Handle("DELETE /api/v1/appointments/{id}", protected(apptHandler.Delete))
	mux.Handle("DELETE /api/v1/appointments/by-contact", protected(apptHandler.DeleteByContact))

	mux.Handle("GET /api/v1/schedule/selected", protected(schedHandler.SelectedDays))
	mux.Handle("POST /api/v1/schedule/toggle", protected(schedHandler.ToggleDay))
	mux.Handle("POST /api/v1/schedule/generate", protected(schedHandler.Generate))
	mux.Handle("GET /api/v1/schedule/slots", protected(schedHandler.Slots))
	mux.Handle("POST /api/v1/schedule/slots", protected(schedHandler.SaveSlots))
	mux.Handle("POST /api/v1/schedule/slots/reset", protected(schedHandler.ResetSlots))

	mux.Handle("GET /api/v1/expenses", protected(expensesHandler.Total))
	mux.Handle("POST /api/v1/expenses", protected(expensesHandler.Add))
	mux.Handle("DELETE /api/v1/expenses/last", protected(expensesHandler.RemoveLast))

	mux.Handle("GET /api/v1/admin/users", adminOnly(adminHandler.ListUsers))
	mux.Handle("POST /api/v1/admin/access/grant", adminOnly(adminHandler.GrantAccess))
	mux.Handle("POST /api/v1/admin/access/revoke", adminOnly(adminHandler.RevokeAccess))
	mux.Handle("POST /api/v1/admin/promote", adminOnly(adminHandler.Promote))
	mux.Handle("POST /api/v1/admin/demote", adminOnly(adminHandler.Demote))

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", handlers.InitDataHeader},
			MaxAge:         10 * time.Minute,
		}),
	}
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT", 60), time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(config.Int("RATE_LIMIT", 60), time.Minute).Middleware())
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func usernameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			set[n] = true
		}
	}
	return set
}
