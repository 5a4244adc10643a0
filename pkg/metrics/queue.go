package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics records queue consumer outcomes. A nil receiver is a no-op so
// wiring metrics stays optional in tests.
type QueueMetrics struct {
	duration    *prometheus.HistogramVec
	processed   *prometheus.CounterVec
	retried     *prometheus.CounterVec
	deadLetters *prometheus.CounterVec
	depth       *prometheus.GaugeVec
}

// NewQueueMetrics registers the queue metrics on the provided registerer.
func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	if reg == nil {
		return &QueueMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "queue_job_duration_seconds",
		Help:    "Duration of queue job handlers in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_jobs_processed_total",
		Help: "Jobs completed successfully.",
	}, []string{"job"})
	retried := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_jobs_retried_total",
		Help: "Jobs that failed and were rescheduled.",
	}, []string{"job"})
	deadLetters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_jobs_dead_lettered_total",
		Help: "Jobs moved to the dead letter table.",
	}, []string{"job"})
	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_depth",
		Help: "Pending jobs per queue.",
	}, []string{"queue"})
	reg.MustRegister(duration, processed, retried, deadLetters, depth)
	return &QueueMetrics{
		duration:    duration,
		processed:   processed,
		retried:     retried,
		deadLetters: deadLetters,
		depth:       depth,
	}
}

// ObserveDuration records how long a handler ran for the named job.
func (q *QueueMetrics) ObserveDuration(job string, duration time.Duration) {
	if q == nil || q.duration == nil {
		return
	}
	q.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncProcessed increments the success counter for the named job.
func (q *QueueMetrics) IncProcessed(job string) {
	if q == nil || q.processed == nil {
		return
	}
	q.processed.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncRetried increments the retry counter for the named job.
func (q *QueueMetrics) IncRetried(job string) {
	if q == nil || q.retried == nil {
		return
	}
	q.retried.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncDeadLettered increments the dead letter counter for the named job.
func (q *QueueMetrics) IncDeadLettered(job string) {
	if q == nil || q.deadLetters == nil {
		return
	}
	q.deadLetters.WithLabelValues(normalizeLabel(job)).Inc()
}

// SetDepth reports the current pending backlog for a queue.
func (q *QueueMetrics) SetDepth(queue string, depth int64) {
	if q == nil || q.depth == nil {
		return
	}
	q.depth.WithLabelValues(normalizeLabel(queue)).Set(float64(depth))
}
