// Package metrics registers the service's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger's Prometheus metrics.
type Metrics struct {
	// Ledger engine
	TransactionsExecuted *prometheus.CounterVec
	TransactionErrors    *prometheus.CounterVec
	TransactionDuration  prometheus.Histogram
	IdempotentReplays    prometheus.Counter

	// Accounts
	AccountsCreated prometheus.Counter

	// Webhook dispatcher
	DeliveriesAttempted prometheus.Counter
	DeliveriesSucceeded prometheus.Counter
	DeliveriesFailed    prometheus.Counter
	WebhooksDisabled    prometheus.Counter
	DeliveryDuration    prometheus.Histogram
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		TransactionsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_executed_total",
			Help: "Total number of executed ledger transactions by type",
		}, []string{"type"}),
		TransactionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transaction_errors_total",
			Help: "Total number of failed ledger transactions by error",
		}, []string{"error"}),
		TransactionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_transaction_duration_seconds",
			Help:    "Duration of ledger transaction execution",
			Buckets: prometheus.DefBuckets,
		}),
		IdempotentReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_idempotent_replays_total",
			Help: "Total number of requests answered from a prior transaction",
		}),
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		DeliveriesAttempted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_webhook_deliveries_attempted_total",
			Help: "Total number of webhook delivery attempts",
		}),
		DeliveriesSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_webhook_deliveries_succeeded_total",
			Help: "Total number of delivered webhooks",
		}),
		DeliveriesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_webhook_deliveries_failed_total",
			Help: "Total number of failed webhook delivery attempts",
		}),
		WebhooksDisabled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_webhooks_disabled_total",
			Help: "Total number of webhooks auto-disabled after repeated failures",
		}),
		DeliveryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_webhook_delivery_duration_seconds",
			Help:    "Duration of outbound webhook delivery attempts",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
