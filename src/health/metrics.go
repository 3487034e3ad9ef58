package health

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestsTotal counts inbound webhook requests by logged status.
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "signalengine",
		Subsystem: "webhook",
		Name:      "requests_total",
		Help:      "Total number of inbound webhook requests by outcome",
	},
	[]string{"status"},
)

// ProcessingLatency tracks end-to-end pipeline latency per request.
var ProcessingLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "signalengine",
		Subsystem: "webhook",
		Name:      "processing_latency_ms",
		Help:      "Webhook pipeline processing time in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	},
)

// CircuitOpen exports the breaker state for alerting.
var CircuitOpen = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "signalengine",
		Subsystem: "webhook",
		Name:      "circuit_open",
		Help:      "1 when the ingestion circuit breaker is open",
	},
)

// ObserveRequest records one finished request.
func ObserveRequest(status string, elapsed time.Duration) {
	RequestsTotal.WithLabelValues(status).Inc()
	ProcessingLatency.Observe(float64(elapsed.Milliseconds()))
}

func SetCircuitOpen(open bool) {
	if open {
		CircuitOpen.Set(1)
		return
	}
	CircuitOpen.Set(0)
}
