package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the driver's Prometheus collectors.
type Metrics struct {
	Ticks        prometheus.Counter
	Transitions  *prometheus.CounterVec
	Commands     *prometheus.CounterVec
	TaskIndex    prometheus.Gauge
	Paused       prometheus.Gauge
	PauseSeconds prometheus.Histogram
	Aborts       prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadence_ticks_total",
			Help: "Total number of driver ticks",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadence_transitions_total",
			Help: "Task transitions by the kind of condition that fired",
		}, []string{"kind"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadence_commands_total",
			Help: "Commands observed per input source",
		}, []string{"source"}),
		TaskIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cadence_task_index",
			Help: "Index of the active task",
		}),
		Paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cadence_paused",
			Help: "1 while the global pause is in effect",
		}),
		PauseSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cadence_pause_duration_seconds",
			Help:    "Duration of completed global pauses",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		Aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadence_aborts_total",
			Help: "Runs force-aborted by an overlong pause",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Ticks, m.Transitions, m.Commands, m.TaskIndex, m.Paused, m.PauseSeconds, m.Aborts)
	}
	return m
}
