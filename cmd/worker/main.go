// Command worker runs one of the four outbox/inbox worker loops, selected
// by -role. Each role is its own OS process per spec.md's process layout;
// sharing this binary only avoids duplicating the bootstrap wiring.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/studentsystem/order-processing/internal/adapters/notifications"
	"github.com/studentsystem/order-processing/internal/adapters/payments"
	"github.com/studentsystem/order-processing/internal/app"
	"github.com/studentsystem/order-processing/internal/broker"
	"github.com/studentsystem/order-processing/internal/httpclient"
	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/worker"
)

const (
	rolePayments      = "outbox-payments"
	roleNotifications = "outbox-notifications"
	roleShipping      = "outbox-shipping"
	roleInbox         = "inbox"
)

func main() {
	role := flag.String("role", "", "worker role: outbox-payments | outbox-notifications | outbox-shipping | inbox")
	flag.Parse()

	if *role == "" {
		panic("missing required -role flag")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	boot, err := app.New(ctx, "worker-"+*role)
	if err != nil {
		panic(fmt.Sprintf("bootstrap failed: %v", err))
	}
	defer boot.DB.Close()

	go serveMetrics(boot.Config.AppPort, boot.Logger)

	switch *role {
	case rolePayments:
		runPaymentsDispatcher(ctx, boot)
	case roleNotifications:
		runNotificationsDispatcher(ctx, boot)
	case roleShipping:
		runShippingDispatcher(ctx, boot)
	case roleInbox:
		runInboxApplier(ctx, boot)
	default:
		panic(fmt.Sprintf("unknown role %q", *role))
	}

	boot.Logger.Info().Str("role", *role).Msg("worker stopped")
}

// serveMetrics exposes /metrics on the worker's configured port; it never
// serves /health or /ready since spec.md's worker roles have no inbound
// HTTP surface beyond observability.
func serveMetrics(port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server failed")
	}
}

func runPaymentsDispatcher(ctx context.Context, boot *app.Bootstrap) {
	retrying := httpclient.New(app.HTTPClientConfig(), boot.Logger)
	client := payments.New(retrying, boot.Config.PaymentsServiceAPIURL, boot.Config.ServiceAccessToken, boot.Config.PaymentsCallbackURL)

	effect := func(ctx context.Context, row *models.OutboxRecord) error {
		var payload models.PaymentRequestedPayload
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return fmt.Errorf("decode payment.requested payload: %w", err)
		}
		return client.RequestPayment(ctx, payload.OrderID, payload.Amount, payload.IdempotencyKey)
	}

	dispatcher := worker.NewOutboxDispatcher(boot.DB, []string{models.EventTypePaymentRequested}, effect, boot.Metrics, boot.Logger, "payments")
	dispatcher.Run(ctx)
}

// notificationEventTypes is every outbox event shaped as a
// models.NotificationPayload — the "Order created"/"Order is
// paid"/"Order is cancelled"/"Order has been shipped" messages of
// spec.md's scenarios 3-5 and the §2 data-flow's final (F-notifications)
// step. A single dispatcher specialization covers all of them.
var notificationEventTypes = []string{
	models.EventTypeOrderCreated,
	models.EventTypeOrderPaid,
	models.EventTypeOrderCancelled,
	models.EventTypeOrderShipped,
}

func runNotificationsDispatcher(ctx context.Context, boot *app.Bootstrap) {
	retrying := httpclient.New(app.HTTPClientConfig(), boot.Logger)
	client := notifications.New(retrying, boot.Config.NotificationsServiceAPIURL, boot.Config.ServiceAccessToken)

	effect := func(ctx context.Context, row *models.OutboxRecord) error {
		var payload models.NotificationPayload
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return fmt.Errorf("decode notification payload: %w", err)
		}
		return client.Send(ctx, payload.Message, payload.IdempotencyKey)
	}

	dispatcher := worker.NewOutboxDispatcher(boot.DB, notificationEventTypes, effect, boot.Metrics, boot.Logger, "notifications")
	dispatcher.Run(ctx)
}

func runShippingDispatcher(ctx context.Context, boot *app.Bootstrap) {
	producer, err := broker.NewProducer(boot.Config.KafkaBrokers(), boot.Config.KafkaTopic)
	if err != nil {
		boot.Logger.Fatal().Err(err).Msg("failed to start kafka producer")
	}
	defer producer.Stop()

	effect := func(ctx context.Context, row *models.OutboxRecord) error {
		var payload models.ShippingRequestedPayload
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return fmt.Errorf("decode shipping.requested payload: %w", err)
		}
		return producer.Publish(payload.OrderID.String(), row.Payload)
	}

	dispatcher := worker.NewOutboxDispatcher(boot.DB, []string{models.EventTypeShippingRequested}, effect, boot.Metrics, boot.Logger, "shipping")
	dispatcher.Run(ctx)
}

func runInboxApplier(ctx context.Context, boot *app.Bootstrap) {
	applier := worker.NewInboxApplier(boot.DB, boot.Metrics, boot.Logger)
	applier.Run(ctx)
}
