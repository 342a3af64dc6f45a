package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"jurisgate/internal/model"
)

// Metrics are the Gate's decision counters.
type Metrics struct {
	decisions *prometheus.CounterVec
	replays   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_decisions_total",
				Help: "Gate decisions by tool, outcome and error code.",
			},
			[]string{"tool", "outcome", "code"},
		),
		replays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_replays_total",
				Help: "Requests answered from a recorded outcome.",
			},
			[]string{"tool"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gate_decision_duration_seconds",
				Help:    "Time spent in Submit, lock wait included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}
	for _, c := range []prometheus.Collector{m.decisions, m.replays, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(tool string, ok, replayed bool, code string, seconds float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(tool).Observe(seconds)
	if replayed {
		m.replays.WithLabelValues(tool).Inc()
		return
	}
	outcome := "accepted"
	if !ok {
		outcome = "rejected"
	}
	m.decisions.WithLabelValues(tool, outcome, code).Inc()
}

// metricTool maps a tool name to a label value. Names outside the catalogue
// collapse to "unknown" so callers cannot grow the series set.
func metricTool(t model.ToolName) string {
	if t.Valid() {
		return string(t)
	}
	return "unknown"
}
