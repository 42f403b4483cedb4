// Command httpserver hosts the order-creation, order-lookup, and
// payment-callback HTTP ingress, plus health/ready/metrics endpoints.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studentsystem/order-processing/internal/adapters/catalog"
	"github.com/studentsystem/order-processing/internal/app"
	httphandler "github.com/studentsystem/order-processing/internal/handler/http"
	"github.com/studentsystem/order-processing/internal/httpclient"
	"github.com/studentsystem/order-processing/internal/service"
	"github.com/studentsystem/order-processing/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	boot, err := app.New(ctx, "httpserver")
	if err != nil {
		panic(fmt.Sprintf("bootstrap failed: %v", err))
	}
	defer boot.DB.Close()

	retrying := httpclient.New(app.HTTPClientConfig(), boot.Logger)
	catalogClient := catalog.New(retrying, boot.Config.CatalogServiceAPIURL, boot.Config.ServiceAccessToken)

	createOrderSvc := service.NewCreateOrderService(boot.DB, catalogClient, boot.Metrics, boot.Logger)
	paymentCallbackSvc := service.NewPaymentCallbackService(boot.DB, boot.Metrics, boot.Logger)
	ordersHandler := httphandler.NewOrdersHandler(
		createOrderSvc,
		paymentCallbackSvc,
		store.NewReadOnlyOrderRepository(boot.DB),
		store.NewReadOnlyOrderStatusRepository(boot.DB),
		boot.Logger,
	)
	notificationsHandler := httphandler.NewNotificationsHandler(store.NewNotificationRepository(boot.DB), boot.Logger)

	router := mux.NewRouter()
	router.Use(httphandler.RecoveryMiddleware(boot.Logger))
	router.Use(httphandler.LoggingMiddleware(boot.Logger))

	router.HandleFunc("/api/v1/orders", ordersHandler.CreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/orders/{id}", ordersHandler.GetOrder).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/orders/payment-callback", ordersHandler.PaymentCallback).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/notifications/{id}", notificationsHandler.Get).Methods(http.MethodGet)
	router.HandleFunc("/health", httphandler.HealthHandler()).Methods(http.MethodGet)
	router.HandleFunc("/ready", httphandler.ReadyHandler(boot.DB.Pool, nil, boot.Logger)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", boot.Config.AppPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		boot.Logger.Info().Int("port", boot.Config.AppPort).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			boot.Logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	boot.Logger.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		boot.Logger.Error().Err(err).Msg("http server shutdown error")
	}
	boot.Logger.Info().Msg("shutdown complete")
}
