// Package metrics defines the Prometheus collectors for the assistant:
// turn and model latency, tool dispatch outcomes and retrieval activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors. A nil *Metrics is valid and records
// nothing, so call sites never need to guard.
type Metrics struct {
	turnDuration     prometheus.Histogram
	modelDuration    prometheus.Histogram
	turnErrors       prometheus.Counter
	toolDispatches   *prometheus.CounterVec
	retrievalQueries *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "elbchat",
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a full conversation turn.",
			Buckets:   prometheus.DefBuckets,
		}),
		modelDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "elbchat",
			Name:      "model_call_duration_seconds",
			Help:      "Wall time of a single model call.",
			Buckets:   prometheus.DefBuckets,
		}),
		turnErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "elbchat",
			Name:      "turn_errors_total",
			Help:      "Turns that ended in a turn-level error.",
		}),
		toolDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elbchat",
			Name:      "tool_dispatches_total",
			Help:      "Tool dispatches by tool name and terminal state.",
		}, []string{"tool", "state"}),
		retrievalQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "elbchat",
			Name:      "retrieval_queries_total",
			Help:      "Retrieval queries by target index.",
		}, []string{"target"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "elbchat",
			Name:      "active_sessions",
			Help:      "Number of live sessions in the store.",
		}),
	}
	reg.MustRegister(
		m.turnDuration, m.modelDuration, m.turnErrors,
		m.toolDispatches, m.retrievalQueries, m.activeSessions,
	)
	return m
}

// ObserveTurn records one completed turn.
func (m *Metrics) ObserveTurn(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.turnDuration.Observe(d.Seconds())
	if err != nil {
		m.turnErrors.Inc()
	}
}

// ObserveModelCall records one model round trip.
func (m *Metrics) ObserveModelCall(d time.Duration) {
	if m == nil {
		return
	}
	m.modelDuration.Observe(d.Seconds())
}

// CountToolDispatch records the terminal state of one tool dispatch.
func (m *Metrics) CountToolDispatch(tool, state string) {
	if m == nil {
		return
	}
	m.toolDispatches.WithLabelValues(tool, state).Inc()
}

// CountRetrievalQuery records one retrieval query against a target index.
func (m *Metrics) CountRetrievalQuery(target string) {
	if m == nil {
		return
	}
	m.retrievalQueries.WithLabelValues(target).Inc()
}

// SetActiveSessions reports the current session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
