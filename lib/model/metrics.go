package model

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

var (
	payloadBytes   = metrics.NewHistogram("skv_model_payload_bytes")
	detachedErrors = metrics.NewCounter("skv_model_detached_errors_total")
)

// modelMetrics holds the per namespace counters of a model.
type modelMetrics struct {
	namespace string
}

func (m modelMetrics) op(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`skv_model_operations_total{op=%q,namespace=%q}`, op, m.namespace)).Inc()
}

func (m modelMetrics) failed(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`skv_model_operation_errors_total{op=%q,namespace=%q}`, op, m.namespace)).Inc()
}
