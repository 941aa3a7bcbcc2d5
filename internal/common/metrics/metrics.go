// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of jobs currently being processed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	EligibleOptionsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eligible_options_returned",
			Help:    "Number of eligible options returned per match-colleges call",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
		[]string{"exam_type"},
	)

	ReferralDiscountsGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_discounts_granted_total",
			Help: "Total referral discounts granted, by party",
		},
		[]string{"party"},
	)
)
