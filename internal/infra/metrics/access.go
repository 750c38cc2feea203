package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(accessDeniedTotal) }

var accessDeniedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "access_denied_total",
		Help: "Operations refused by the access policy.",
	},
	[]string{"operation", "role"},
)

func IncAccessDenied(operation, role string) {
	accessDeniedTotal.WithLabelValues(norm(operation), norm(role)).Inc()
}
