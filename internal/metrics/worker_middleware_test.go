package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkerCollectorActiveJobsGauge(t *testing.T) {
	c := NewWorkerCollector()
	base := testutil.ToFloat64(WorkerPoolActiveJobs)

	c.JobStarted("transcode", "default")
	if got := testutil.ToFloat64(WorkerPoolActiveJobs); got != base+1 {
		t.Errorf("active jobs after start = %v, want %v", got, base+1)
	}

	c.JobCompleted("transcode", "default", time.Second)
	if got := testutil.ToFloat64(WorkerPoolActiveJobs); got != base {
		t.Errorf("active jobs after completion = %v, want %v", got, base)
	}

	c.JobStarted("transcode", "default")
	c.JobFailed("transcode", "default", time.Second)
	if got := testutil.ToFloat64(WorkerPoolActiveJobs); got != base {
		t.Errorf("active jobs after failure = %v, want %v", got, base)
	}
}

func TestWorkerCollectorOutcomeLabels(t *testing.T) {
	c := NewWorkerCollector()

	success := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("transcode", "success"))
	failure := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("transcode", "error"))
	retry := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("transcode", "retry"))

	c.JobStarted("transcode", "default")
	c.JobCompleted("transcode", "default", 250*time.Millisecond)
	c.JobStarted("transcode", "default")
	c.JobFailed("transcode", "default", 250*time.Millisecond)
	c.JobRetrying("transcode", "default", 1)

	if got := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("transcode", "success")); got != success+1 {
		t.Errorf("success count = %v, want %v", got, success+1)
	}
	if got := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("transcode", "error")); got != failure+1 {
		t.Errorf("error count = %v, want %v", got, failure+1)
	}
	if got := testutil.ToFloat64(JobsProcessedTotal.WithLabelValues("transcode", "retry")); got != retry+1 {
		t.Errorf("retry count = %v, want %v", got, retry+1)
	}
}
