package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_completed_total",
			Help: "Total number of submissions stored",
		},
		[]string{"flow"},
	)

	SubmissionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_failed_total",
			Help: "Total number of submissions aborted, by phase",
		},
		[]string{"flow", "phase"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_submission_duration_seconds",
			Help:    "Duration of a submission from guard to insert in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow"},
	)

	FilesUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_files_uploaded_total",
			Help: "Total number of files written to object storage",
		},
		[]string{"kind"},
	)

	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_webhook_deliveries_total",
			Help: "Webhook notifications by outcome",
		},
		[]string{"outcome"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intake_sessions_active",
			Help: "Number of wizard sessions held in memory",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_sessions_evicted_total",
			Help: "Total number of idle wizard sessions evicted by the sweeper",
		},
	)
)
