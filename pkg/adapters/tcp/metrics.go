package tcp

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the transport's Prometheus collectors.
type Metrics struct {
	Connections prometheus.Counter
	Frames      prometheus.Counter
	Queued      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadence_tcp_connections_total",
			Help: "Accepted TCP connections",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadence_tcp_frames_total",
			Help: "Frames received, including empty ones",
		}),
		Queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cadence_tcp_queued_commands",
			Help: "Commands waiting to be drained",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Connections, m.Frames, m.Queued)
	}
	return m
}
