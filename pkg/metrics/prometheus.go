package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	sourceRequests *prometheus.CounterVec
	sourceLatency  *prometheus.HistogramVec
	jobRuns        *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	score          *prometheus.GaugeVec
	webhookSends   *prometheus.CounterVec
	eventsSent     *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
}

var (
	defaultRecorder *Recorder
	once            sync.Once
)

// New returns the process-wide recorder. Collectors register with the
// default registry exactly once.
func New() *Recorder {
	once.Do(func() {
		defaultRecorder = &Recorder{
			sourceRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "xllucky_source_requests_total",
					Help: "Provider fetches by source and outcome",
				},
				[]string{"source", "outcome"},
			),
			sourceLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "xllucky_source_fetch_duration_seconds",
					Help:    "Duration of provider fetches in seconds",
					Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				},
				[]string{"source"},
			),
			jobRuns: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "xllucky_job_runs_total",
					Help: "Job runs by job and status",
				},
				[]string{"job", "status"},
			),
			jobDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "xllucky_job_duration_seconds",
					Help:    "Duration of job runs in seconds",
					Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
				},
				[]string{"job"},
			),
			score: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "xllucky_score",
					Help: "Latest composite score per job and subject",
				},
				[]string{"job", "subject"},
			),
			webhookSends: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "xllucky_webhook_sends_total",
					Help: "Webhook posts by flow and status",
				},
				[]string{"flow", "status"},
			),
			eventsSent: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "xllucky_events_sent_total",
					Help: "Score events written to optional sinks",
				},
				[]string{"sink"},
			),
			eventsDropped: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "xllucky_events_dropped_total",
					Help: "Score events rejected or lost before reaching a sink",
				},
				[]string{"reason"},
			),
		}
	})
	return defaultRecorder
}

// RecordSourceFetch records one provider fetch.
func (r *Recorder) RecordSourceFetch(source string, ok bool, seconds float64) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.sourceRequests.WithLabelValues(source, outcome).Inc()
	r.sourceLatency.WithLabelValues(source).Observe(seconds)
}

// RecordJob records a finished job run.
func (r *Recorder) RecordJob(job, status string, seconds float64) {
	r.jobRuns.WithLabelValues(job, status).Inc()
	r.jobDuration.WithLabelValues(job).Observe(seconds)
}

// RecordScore sets the latest score for a subject.
func (r *Recorder) RecordScore(job, subject string, score float64) {
	r.score.WithLabelValues(job, subject).Set(score)
}

// RecordWebhook records a webhook post.
func (r *Recorder) RecordWebhook(flow, status string) {
	r.webhookSends.WithLabelValues(flow, status).Inc()
}

// RecordEventSent records a score event written to a sink.
func (r *Recorder) RecordEventSent(sink string) {
	r.eventsSent.WithLabelValues(sink).Inc()
}

// RecordEventDropped records a score event that never reached a sink.
func (r *Recorder) RecordEventDropped(reason string) {
	r.eventsDropped.WithLabelValues(reason).Inc()
}
