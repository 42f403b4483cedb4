package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the order-processing service.
type Metrics struct {
	// Order creation
	OrdersCreatedTotal    prometheus.Counter
	OrderCreationDuration *prometheus.HistogramVec

	// Payment callback
	PaymentsSucceededTotal prometheus.Counter
	PaymentsFailedTotal    prometheus.Counter

	// Shipping
	ShippingResultsProcessedTotal *prometheus.CounterVec

	// Outbox dispatcher
	OutboxLeasedTotal    *prometheus.CounterVec
	OutboxDispatchedTotal *prometheus.CounterVec
	OutboxFailedTotal     *prometheus.CounterVec
	OutboxDispatchDuration *prometheus.HistogramVec

	// Inbox applier
	InboxLeasedTotal  prometheus.Counter
	InboxAppliedTotal *prometheus.CounterVec
	InboxFailedTotal  *prometheus.CounterVec

	// Database
	DatabaseOperationDuration *prometheus.HistogramVec
	DatabaseErrors            *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics with the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics with a custom registry (useful for testing).
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OrdersCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Total number of orders created",
			},
		),
		OrderCreationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "order_creation_duration_seconds",
				Help:    "Duration of order creation transactions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"}, // success, failure
		),
		PaymentsSucceededTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payments_succeeded_total",
				Help: "Total number of payment callbacks with status=succeeded",
			},
		),
		PaymentsFailedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payments_failed_total",
				Help: "Total number of payment callbacks with status=failed",
			},
		),
		ShippingResultsProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipping_results_processed_total",
				Help: "Total number of shipping result messages processed from the broker",
			},
			[]string{"event_type"},
		),
		OutboxLeasedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outbox_leased_total",
				Help: "Total number of outbox rows leased by a dispatcher",
			},
			[]string{"event_type"},
		),
		OutboxDispatchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outbox_dispatched_total",
				Help: "Total number of outbox rows successfully dispatched",
			},
			[]string{"event_type"},
		),
		OutboxFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outbox_dispatch_failed_total",
				Help: "Total number of outbox rows that failed dispatch and remain pending",
			},
			[]string{"event_type"},
		),
		OutboxDispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "outbox_dispatch_duration_seconds",
				Help:    "Duration of a single outbox row dispatch",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event_type", "status"},
		),
		InboxLeasedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "inbox_leased_total",
				Help: "Total number of inbox rows leased by the applier",
			},
		),
		InboxAppliedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inbox_applied_total",
				Help: "Total number of inbox rows successfully applied to order state",
			},
			[]string{"event_type"},
		),
		InboxFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inbox_apply_failed_total",
				Help: "Total number of inbox rows that failed to apply and remain pending",
			},
			[]string{"event_type"},
		),
		DatabaseOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "database_operation_duration_seconds",
				Help:    "Duration of database operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DatabaseErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_errors_total",
				Help: "Total number of database errors",
			},
			[]string{"operation", "error_type"},
		),
	}
}
