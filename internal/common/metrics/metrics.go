package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MarketSourceAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_source_attempts_total",
			Help: "Market data source fetch attempts by outcome",
		},
		[]string{"source", "outcome"},
	)

	MarketSourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_source_duration_seconds",
			Help:    "Duration of market data source fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	MarketCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_cache_lookups_total",
			Help: "Market data cache lookups by result",
		},
		[]string{"result"},
	)

	LeadsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_routed_total",
			Help: "Leads fully dispatched to the CRM",
		},
		[]string{"kind", "priority"},
	)

	LeadRoutingFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_routing_failures_total",
			Help: "Lead dispatches that stopped at a CRM step",
		},
		[]string{"kind", "step"},
	)

	LeadScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_score",
			Help:    "Distribution of computed lead scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"kind"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
