// Command shippingconsumer reads shipping results from the broker and
// records them into inbox/outbox via the idempotent consumer described in
// spec.md §4.E.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studentsystem/order-processing/internal/app"
	"github.com/studentsystem/order-processing/internal/broker"
	"github.com/studentsystem/order-processing/internal/service"
)

const consumerGroupID = "student-system-shipping-consumer"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	boot, err := app.New(ctx, "shippingconsumer")
	if err != nil {
		panic(fmt.Sprintf("bootstrap failed: %v", err))
	}
	defer boot.DB.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", boot.Config.AppPort)
		boot.Logger.Info().Str("addr", addr).Msg("metrics server listening")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			boot.Logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	consumer, err := broker.NewConsumer(boot.Config.KafkaBrokers(), consumerGroupID, boot.Config.KafkaTopic, boot.Logger)
	if err != nil {
		boot.Logger.Fatal().Err(err).Msg("failed to start kafka consumer")
	}
	defer consumer.Stop()

	resultSvc := service.NewShippingResultService(boot.DB, boot.Metrics, boot.Logger)

	if err := consumer.Run(ctx, resultSvc.HandleMessage); err != nil {
		boot.Logger.Fatal().Err(err).Msg("shipping consumer stopped with error")
	}

	boot.Logger.Info().Msg("shipping consumer stopped")
}
