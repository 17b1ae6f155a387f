package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchagent_decisions_total",
			Help: "Model-mediated decisions by decision and result",
		},
		[]string{"decision", "result"},
	)

	RetrievalOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchagent_retrieval_outcomes_total",
			Help: "Retrieval loop outcomes",
		},
		[]string{"outcome"},
	)

	CandidatesTried = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "searchagent_candidates_tried_total",
			Help: "Search results removed from the working set and extracted",
		},
	)

	CallFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchagent_call_failures_total",
			Help: "Failed external calls by call and failure kind",
		},
		[]string{"call", "kind"},
	)

	CallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "searchagent_call_duration_seconds",
			Help:    "Duration of external calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"call"},
	)
)

// ObserveCall records the duration of a call started at start.
func ObserveCall(call string, start time.Time) {
	CallDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
