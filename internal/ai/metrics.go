package ai

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// aiReqs counts provider calls by operation ("completion"/"title") and
	// outcome ("ok"/"error").
	aiReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI provider requests.",
		},
		[]string{"op", "outcome"},
	)

	// aiLat records provider round-trip duration in seconds by operation.
	// Buckets skew high: completions routinely take seconds.
	aiLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Duration of AI provider requests in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(aiReqs, aiLat)
}

// observe records one provider round-trip.
func observe(op string, d time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	aiReqs.WithLabelValues(op, outcome).Inc()
	aiLat.WithLabelValues(op).Observe(d.Seconds())
}
