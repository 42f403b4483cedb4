// Package app holds the bootstrap shared by all three binaries
// (httpserver, worker, shippingconsumer),
// generalized from the teacher's inline cmd/server/main.go wiring (config
// load, logger, metrics, database pool) so each process doesn't repeat it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/studentsystem/order-processing/internal/config"
	"github.com/studentsystem/order-processing/internal/httpclient"
	"github.com/studentsystem/order-processing/internal/observability"
	"github.com/studentsystem/order-processing/internal/store"
)

// Bootstrap holds the resources every process wires up before starting its
// own role-specific work.
type Bootstrap struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	DB      *store.Database
}

// New loads configuration, builds the logger and metrics registry, and
// connects to the database.
func New(ctx context.Context, serviceName string) (*Bootstrap, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}).With().Str("process", serviceName).Logger()

	metrics := observability.NewMetrics()

	db, err := store.NewDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info().Str("process", serviceName).Msg("bootstrap complete")

	return &Bootstrap{Config: cfg, Logger: logger, Metrics: metrics, DB: db}, nil
}

// HTTPClientConfig returns the shared retry/backoff configuration used by
// every outbound adapter, per spec.md §4.H.
func HTTPClientConfig() httpclient.Config {
	return httpclient.Config{}
}
