package launcher

import "github.com/prometheus/client_golang/prometheus"

var (
	launchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamelaunch",
			Subsystem: "launcher",
			Name:      "launches_total",
			Help:      "Launch requests by outcome (success, error, spawn_failed, rejected)",
		},
		[]string{"outcome"},
	)

	checkDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gamelaunch",
			Subsystem: "launcher",
			Name:      "check_duration_seconds",
			Help:      "Duration of the resolve and verify phase",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		},
	)
)

func init() {
	prometheus.MustRegister(launchesTotal, checkDuration)
}
