package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric results.
const (
	resultSuccess = "success"
	resultError   = "error"
)

// Metrics records lifecycle command outcomes. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal  *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
}

// NewMetrics creates the lifecycle metrics on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hacluster",
				Subsystem: "lifecycle",
				Name:      "commands_total",
				Help:      "Total number of lifecycle commands by action, kind and result",
			},
			[]string{"action", "kind", "result"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hacluster",
				Subsystem: "lifecycle",
				Name:      "action_duration_seconds",
				Help:      "Duration of lifecycle actions in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
			},
			[]string{"action"},
		),
	}
	m.registry.MustRegister(m.commandsTotal, m.actionDuration)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) recordCommand(action Action, kind Kind, err error) {
	if m == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	m.commandsTotal.WithLabelValues(string(action), string(kind), result).Inc()
}

func (m *Metrics) recordAction(action Action, seconds float64) {
	if m == nil {
		return
	}
	m.actionDuration.WithLabelValues(string(action)).Observe(seconds)
}
