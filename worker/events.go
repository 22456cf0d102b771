package worker

import (
	"log/slog"
	"time"

	"github.com/hatsunemiku3939/sqsbreaker"
	"github.com/hatsunemiku3939/sqsbreaker/metrics"
)

// recorder emits one structured event per terminal outcome and keeps the
// metric counters in step with the log stream.
type recorder struct {
	log      *slog.Logger
	function string
}

func newRecorder(log *slog.Logger, function string) *recorder {
	return &recorder{log: log, function: function}
}

func (r *recorder) success(meta sqsbreaker.TransactionMetadata, latency time.Duration) {
	r.log.Info("transaction processed",
		"function", r.function,
		"message_id", meta.MessageID,
		"group_key", meta.CustomerID,
		"latency_ms", latency.Milliseconds(),
	)
	metrics.TransactionsProcessed.WithLabelValues(r.function, "success").Inc()
	metrics.ProcessingLatency.WithLabelValues(r.function).Observe(latency.Seconds())
}

func (r *recorder) fault(meta sqsbreaker.TransactionMetadata, cls sqsbreaker.Classification, latency time.Duration, unclassified bool) {
	r.log.Error("transaction failed",
		"function", r.function,
		"message_id", meta.MessageID,
		"group_key", meta.CustomerID,
		"classification", cls.Kind.String(),
		"status_hint", cls.StatusHint,
		"reason", cls.Message,
		"latency_ms", latency.Milliseconds(),
		"unclassified", unclassified,
	)
	metrics.TransactionsProcessed.WithLabelValues(r.function, cls.Kind.String()).Inc()
	metrics.ProcessingLatency.WithLabelValues(r.function).Observe(latency.Seconds())
}

func (r *recorder) suspension(meta sqsbreaker.TransactionMetadata, cls sqsbreaker.Classification, latency time.Duration, bindingID string, disableErr error) {
	r.log.Warn("server fault, consumption suspended",
		"function", r.function,
		"binding_id", bindingID,
		"message_id", meta.MessageID,
		"group_key", meta.CustomerID,
		"classification", cls.Kind.String(),
		"status_hint", cls.StatusHint,
		"reason", cls.Message,
		"latency_ms", latency.Milliseconds(),
		"disable_error", disableErr,
	)
	metrics.TransactionsProcessed.WithLabelValues(r.function, cls.Kind.String()).Inc()
	metrics.ProcessingLatency.WithLabelValues(r.function).Observe(latency.Seconds())
	metrics.SuspensionsTotal.WithLabelValues(r.function).Inc()
	metrics.BindingEnabledState.WithLabelValues(r.function).Set(0)
}
