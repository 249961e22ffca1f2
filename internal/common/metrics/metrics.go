// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edupath_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edupath_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edupath_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edupath_recommendations_served_total",
			Help: "Recommendation runs by track and whether any major matched",
		},
		[]string{"track", "matched"},
	)

	RecommendationResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edupath_recommendation_result_size",
			Help:    "Number of majors returned per recommendation run",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)

	AttemptPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edupath_attempt_persist_failures_total",
			Help: "Survey attempts whose results were returned but could not be saved",
		},
	)

	AISuggestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edupath_ai_suggestions_total",
			Help: "Major suggestions by provider and source (ai or heuristic)",
		},
		[]string{"provider", "source"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edupath_notifications_sent_total",
			Help: "Result notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
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
)
