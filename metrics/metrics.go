package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsProcessed tracks terminal outcomes per function.
	TransactionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqsbreaker_transactions_processed_total",
			Help: "Total number of transactions reaching a terminal outcome",
		},
		[]string{"function", "outcome"},
	)

	// ProcessingLatency tracks end-to-end handling latency per function.
	ProcessingLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqsbreaker_processing_latency_seconds",
			Help:    "Transaction processing latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"function"},
	)

	// SuspensionsTotal tracks how often a function disabled its own binding.
	SuspensionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqsbreaker_suspensions_total",
			Help: "Total number of self-suspensions after a server fault",
		},
		[]string{"function"},
	)

	// DirectivesApplied tracks control directives applied per action and result.
	DirectivesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqsbreaker_directives_applied_total",
			Help: "Total number of control directives applied to a function",
		},
		[]string{"action", "result"},
	)

	// BindingEnabledState reports the last observed binding state per function
	// (1 enabled, 0 disabled).
	BindingEnabledState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sqsbreaker_binding_enabled",
			Help: "Last observed binding state per function (1 enabled, 0 disabled)",
		},
		[]string{"function"},
	)
)
