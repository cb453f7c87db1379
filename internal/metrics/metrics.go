// Package metrics exposes Prometheus instrumentation for the board.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the board's collectors. All fields are registered on
// construction.
type Metrics struct {
	SessionsConnected prometheus.Gauge
	BroadcastsTotal   prometheus.Counter
	CommandsTotal     *prometheus.CounterVec
	RefreshesTotal    *prometheus.CounterVec
}

// New creates and registers the board collectors. Uses the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		SessionsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stageboard",
			Name:      "sessions_connected",
			Help:      "Number of currently connected view/edit sessions.",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stageboard",
			Name:      "broadcasts_total",
			Help:      "Total full-snapshot broadcasts pushed to sessions.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stageboard",
			Name:      "commands_total",
			Help:      "Total operator commands by operation and result.",
		}, []string{"op", "result"}),
		RefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stageboard",
			Name:      "refreshes_total",
			Help:      "Total schedule refreshes from the authoritative source by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.SessionsConnected, m.BroadcastsTotal, m.CommandsTotal, m.RefreshesTotal)
	return m
}
