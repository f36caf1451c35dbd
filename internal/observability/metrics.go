// Package observability defines the Prometheus metrics exported by the application.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModelFits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neurosense_model_fits_total",
		Help: "The total number of mood models fitted",
	})

	ModelCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neurosense_model_cache_hits_total",
		Help: "The total number of predictions served by a cached model",
	})

	ModelFitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "neurosense_model_fit_duration_seconds",
		Help:    "Duration of mood model fitting",
		Buckets: prometheus.DefBuckets,
	})

	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurosense_predictions_total",
		Help: "The total number of mood predictions",
	}, []string{"status"})

	ExternalRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "neurosense_external_request_duration_seconds",
		Help:    "Duration of calls to external collaborators",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "status"})

	HistoryEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neurosense_history_entries_total",
		Help: "The total number of mood and journal entries recorded",
	}, []string{"kind"})
)
