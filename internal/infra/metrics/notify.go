package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notifyJobsTotal) }

var notifyJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notify_jobs_total",
		Help: "Outbound notifications processed by the worker pool, labeled by kind and status.",
	},
	[]string{"kind", "status"}, // status: 'sent', 'failed', 'dropped'
)

func IncNotifyJob(kind, status string) {
	notifyJobsTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}
