// Package metrics registers the pipeline's Prometheus instruments.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CandidatesAggregated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saasscout_candidates_aggregated_total",
			Help: "Candidates collected, labeled by source feed.",
		},
		[]string{"source"},
	)
	GatekeeperVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saasscout_gatekeeper_verdicts_total",
			Help: "Gatekeeper verdicts, labeled by deciding tier (prevalidation, ai, fallback, cached).",
		},
		[]string{"tier"},
	)
	ClassifierDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saasscout_classifier_duration_seconds",
			Help:    "Duration of AI classifier calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	Admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saasscout_admissions_total",
			Help: "Admission outcomes, labeled by result (created, updated, skipped, rejected).",
		},
		[]string{"result"},
	)
	Evictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saasscout_evictions_total",
			Help: "Stored entities evicted under capacity pressure.",
		},
	)
	CatalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saasscout_catalog_size",
			Help: "Current number of stored entities.",
		},
	)
)

func init() {
	prometheus.MustRegister(CandidatesAggregated)
	prometheus.MustRegister(GatekeeperVerdicts)
	prometheus.MustRegister(ClassifierDuration)
	prometheus.MustRegister(Admissions)
	prometheus.MustRegister(Evictions)
	prometheus.MustRegister(CatalogSize)
}

// Expose serves the Prometheus endpoint; intended to run in its own
// goroutine for the lifetime of a batch invocation.
func Expose(addr string) {
	slog.Info("exposing prometheus metrics", "address", addr)
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}
