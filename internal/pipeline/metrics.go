package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the pipeline's Prometheus instruments.
type Metrics struct {
	StageDuration   *prometheus.HistogramVec
	SearchAttempts  prometheus.Counter
	SearchFallbacks prometheus.Counter
	Runs            *prometheus.CounterVec
}

// NewMetrics registers the pipeline instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "groundqa_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
			},
			[]string{"stage"},
		),
		SearchAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "groundqa_search_attempts_total",
			Help: "Total number of search provider invocations, including failures",
		}),
		SearchFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "groundqa_search_fallbacks_total",
			Help: "Total number of runs that used the fallback context after exhausting search attempts",
		}),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groundqa_pipeline_runs_total",
				Help: "Total number of pipeline runs by status",
			},
			[]string{"status"},
		),
	}
}
