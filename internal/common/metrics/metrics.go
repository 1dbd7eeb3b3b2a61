// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Router metrics
var (
	QueriesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_queries_total",
			Help: "Total number of routed queries by final intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	Escalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_escalations_total",
			Help: "Total number of escalations to human support by reason",
		},
		[]string{"reason"},
	)

	ClassificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "router_classification_duration_seconds",
			Help:    "Duration of classification calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"status"},
	)

	RewriteFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_rewrite_fallbacks_total",
			Help: "Total number of rewrites that fell back to the factual answer",
		},
		[]string{"handler", "reason"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_escalation_notifications_total",
			Help: "Total number of escalation notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)

// Worker metrics
var (
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
