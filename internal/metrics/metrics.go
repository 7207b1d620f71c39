package metrics

import (
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	MediaUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Total number of media uploads",
		},
		[]string{"status"},
	)

	MediaUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_upload_bytes",
			Help:    "Size of uploaded media in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	MediaUploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_upload_duration_seconds",
			Help:    "Duration of media uploads in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	OrphanedUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_orphaned_uploads_total",
			Help: "Uploads persisted as UPLOADED whose job enqueue failed",
		},
	)

	JobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Total number of jobs enqueued",
		},
		[]string{"job_type"},
	)

	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Total number of processed jobs",
		},
		[]string{"job_type", "status"},
	)

	JobsProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobs_processing_duration_seconds",
			Help:    "Job processing duration in seconds",
			Buckets: []float64{.5, 1, 5, 15, 60, 300, 900, 1800, 3600},
		},
		[]string{"job_type", "phase"},
	)

	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "transcode_encode_duration_seconds",
			Help:    "Duration of the external encoder invocation in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		},
	)

	ArtifactsUploadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcode_artifacts_uploaded_total",
			Help: "Total number of processed artifacts uploaded",
		},
		[]string{"status"},
	)

	WorkerPoolActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_pool_active_jobs",
			Help: "Number of jobs currently being processed",
		},
	)

	WorkerPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_pool_size",
			Help: "Configured worker pool concurrency",
		},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_operations_total",
			Help: "Total number of object storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Object storage operation duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	StorageBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_bytes_total",
			Help: "Total bytes moved through object storage",
		},
		[]string{"operation"},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application build and deployment information",
		},
		[]string{"version", "environment", "service"},
	)
)

// NormalizePath collapses ids so metric label cardinality stays bounded.
func NormalizePath(path string) string {
	return uuidRegex.ReplaceAllString(path, ":id")
}

func RecordMediaUpload(status string, sizeBytes int64, durationSeconds float64) {
	MediaUploadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		MediaUploadBytes.Observe(float64(sizeBytes))
		MediaUploadDuration.Observe(durationSeconds)
	}
}

func RecordJobEnqueued(jobType string) {
	JobsEnqueuedTotal.WithLabelValues(jobType).Inc()
}

func SetAppInfo(version, environment, service string) {
	AppInfo.WithLabelValues(version, environment, service).Set(1)
}

func SetWorkerPoolSize(size int) {
	WorkerPoolSize.Set(float64(size))
}
