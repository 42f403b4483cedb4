package http

import (
	"context"
	"net/http"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/studentsystem/order-processing/internal/store"
)

// HealthHandler returns a liveness check (always OK).
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyHandler returns a readiness check that pings the database. When a
// kafkaProducer is passed, "kafka": "ok" is added to the reported checks;
// the producer itself is not probed. A nil kafkaProducer means this
// process doesn't talk to the broker (e.g. the HTTP ingress) and the kafka
// entry is omitted rather than treated as a failure.
func ReadyHandler(db store.Pool, kafkaProducer sarama.SyncProducer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"database": "ok"}

		if err := db.Ping(ctx); err != nil {
			logger.Error().Err(err).Msg("database health check failed")
			checks["database"] = "failed"
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unavailable",
				"checks": checks,
			})
			return
		}

		if kafkaProducer != nil {
			checks["kafka"] = "ok"
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ready",
			"checks": checks,
		})
	}
}
