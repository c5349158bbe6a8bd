package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"zapisbot/libs/config"
	"zapisbot/libs/db"
	"zapisbot/libs/httpx"
	"zapisbot/libs/kafkax"
	otelx "zapisbot/libs/otel"
	"zapisbot/libs/runtime"
	"zapisbot/services/notification-service/internal/consumer"
	"zapisbot/services/notification-service/internal/inbox"
	"zapisbot/services/notification-service/internal/storage"
	"zapisbot/services/notification-service/internal/telegram"
)

const (
	topicBooked    = "booking.appointment.booked.v1"
	topicCancelled = "booking.appointment.cancelled.v1"
)

// appointmentEvent mirrors the payload published by the booking service.
type appointmentEvent struct {
	AppointmentID int64   `json:"appointment_id"`
	OwnerTgID     int64   `json:"owner_tg_id"`
	Schema        string  `json:"schema"`
	Name          string  `json:"name"`
	Contact       string  `json:"contact"`
	Time          string  `json:"time"`
	Day           string  `json:"day"`
	Prepayment    float64 `json:"prepayment"`
}

func renderMessage(eventType string, evt appointmentEvent) string {
	when := fmt.Sprintf("%s at %s", evt.Day, strings.ReplaceAll(evt.Time, ":", "."))
	switch eventType {
	case topicCancelled:
		return fmt.Sprintf("❌ Booking cancelled: %s (%s) on %s", evt.Name, evt.Contact, when)
	default:
		return fmt.Sprintf("✅ New booking: %s (%s) on %s", evt.Name, evt.Contact, when)
	}
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8081")
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
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.EnsureTables(ctx, pool); err != nil {
		logger.Error("schema bootstrap failed", "err", err)
		panic(err)
	}

	var sender telegram.Sender
	if token := config.String("BOT_TOKEN", ""); token != "" {
		sender = telegram.NewBotSender(token)
	} else {
		logger.Warn("no bot token configured; notifications are dropped")
		sender = telegram.NewNoopSender()
	}

	notifications := storage.NewNotificationRepository(pool)
	inboxRepo := inbox.NewRepository(pool)
	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")

	handle := func(ctx context.Context, msg kafka.Message) error {
		var evt appointmentEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.OwnerTgID == 0 {
			logger.Error("event without owner", "topic", msg.Topic)
			return nil
		}

		meta := kafkax.ExtractEventMeta(msg)
		body := renderMessage(meta.EventType, evt)
		record := storage.Notification{
			EventID:   meta.EventID,
			EventType: meta.EventType,
			OwnerTgID: evt.OwnerTgID,
			Provider:  sender.ProviderID(),
			Body:      body,
			Status:    storage.StatusSent,
		}
		if err := sender.Send(ctx, evt.OwnerTgID, body); err != nil {
			logger.Error("telegram send failed", "err", err, "owner_tg_id", evt.OwnerTgID)
			record.Status = storage.StatusFailed
			record.Error = err.Error()
		}
		return notifications.Insert(ctx, record)
	}

	for _, topic := range []string{topicBooked, topicCancelled} {
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, handle)
		go c.Run(ctx)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "notification")
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
