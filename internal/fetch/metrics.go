package fetch

import "github.com/prometheus/client_golang/prometheus"

var (
	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gamelaunch",
			Subsystem: "fetch",
			Name:      "total",
			Help:      "Verify/fetch operations by result (hit, downloaded, mismatch, failed)",
		},
		[]string{"result"},
	)

	fetchBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gamelaunch",
			Subsystem: "fetch",
			Name:      "bytes_total",
			Help:      "Bytes written by downloads",
		},
	)
)

func init() {
	prometheus.MustRegister(fetchTotal, fetchBytes)
}
