package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total emails delivered to the transport",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total failed delivery attempts",
		},
	)

	EmailsQueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_queued_total",
			Help: "Total emails accepted for deferred delivery",
		},
	)

	JobsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobs_failed_total",
			Help: "Total jobs that exhausted their retries",
		},
	)

	DispatcherRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatcher_runs_total",
			Help: "Total dispatcher passes over the queue",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Jobs currently held by the queue (pending + failed)",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		EmailsSent,
		EmailFailures,
		EmailsQueued,
		JobsFailed,
		DispatcherRuns,
		QueueDepth,
	)
}
