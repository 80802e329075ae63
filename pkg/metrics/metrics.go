package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Payments
	PaymentsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpay_payments_initiated_total",
			Help: "Payment initiations by method and outcome",
		},
		[]string{"method", "outcome"}, // success|failure|not_implemented
	)
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpay_payment_status_transitions_total",
			Help: "Transaction status transitions",
		},
		[]string{"method", "status"},
	)
	WebhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpay_webhooks_received_total",
			Help: "Inbound provider webhooks by outcome",
		},
		[]string{"method", "outcome"},
	)
	RefundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpay_refunds_total",
			Help: "Refunds by method and status",
		},
		[]string{"method", "status"},
	)
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpay_provider_request_duration_seconds",
			Help:    "Latency of outbound provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation", "outcome"},
	)

	// Sweeper
	ExpiredSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpay_expired_transactions_swept_total",
			Help: "Pending transactions expired by the sweeper",
		},
	)
)

// Handler serves /metrics.
var Handler = promhttp.Handler

var once sync.Once

// Init registers every collector with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			PaymentsInitiated,
			StatusTransitions,
			WebhooksReceived,
			RefundsTotal,
			ProviderLatency,
			ExpiredSwept,
		)
	})
}
