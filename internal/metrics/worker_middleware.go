package metrics

import (
	"time"
)

// WorkerCollector feeds the job pool's lifecycle callbacks into the
// Prometheus registry. A single transcode can hold a slot for minutes,
// so the active-jobs gauge is the primary capacity signal; counters
// and durations are labeled by job type and outcome.
type WorkerCollector struct{}

func NewWorkerCollector() *WorkerCollector {
	return &WorkerCollector{}
}

func (c *WorkerCollector) JobStarted(jobType, queue string) {
	WorkerPoolActiveJobs.Inc()
}

func (c *WorkerCollector) JobCompleted(jobType, queue string, duration time.Duration) {
	c.finish(jobType, "success", duration)
}

// JobFailed fires on permanent failure, after retries are exhausted or
// the handler returns a permanent error.
func (c *WorkerCollector) JobFailed(jobType, queue string, duration time.Duration) {
	c.finish(jobType, "error", duration)
}

func (c *WorkerCollector) JobRetrying(jobType, queue string, attempt int) {
	JobsProcessedTotal.WithLabelValues(jobType, "retry").Inc()
}

func (c *WorkerCollector) finish(jobType, status string, duration time.Duration) {
	WorkerPoolActiveJobs.Dec()
	JobsProcessedTotal.WithLabelValues(jobType, status).Inc()
	JobsProcessingDuration.WithLabelValues(jobType, "total").Observe(duration.Seconds())
}
