// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerScrapesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_scrapes_completed_total",
			Help: "Total number of scrapes completed per store",
		},
		[]string{"store"},
	)

	WorkerScrapesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_scrapes_failed_total",
			Help: "Total number of scrapes failed per store",
		},
		[]string{"store", "status"},
	)

	WorkerScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_scrape_duration_seconds",
			Help:    "Duration of the scrape phase in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 90, 120},
		},
		[]string{"store"},
	)

	PipelineRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_rejections_total",
			Help: "Items dropped by the validation pipeline per stage",
		},
		[]string{"stage"},
	)

	ItemsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_emitted_total",
			Help: "Validated items emitted per store",
		},
		[]string{"store"},
	)

	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "workers_active",
			Help: "Number of workers currently in the scrape phase",
		},
	)
)
