// Package metrics exposes the Prometheus instruments for the connect
// service. Instruments register themselves on the default registry, which
// the router serves at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CodeExchanges counts authorization-code exchanges by provider and outcome.
	CodeExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onesns_connect_code_exchanges_total",
		Help: "The total number of authorization-code exchanges",
	}, []string{"provider", "status"})

	// TokenRefreshes counts sweep refresh attempts by provider and outcome.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onesns_connect_token_refreshes_total",
		Help: "The total number of token refresh attempts",
	}, []string{"provider", "status"})

	// SweepRuns counts refresh sweep executions, including skipped ones.
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onesns_connect_sweep_runs_total",
		Help: "The total number of refresh sweep runs",
	}, []string{"status"})

	// SweepDuration observes wall time of completed sweeps.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "onesns_connect_sweep_duration_seconds",
		Help:    "The refresh sweep duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
