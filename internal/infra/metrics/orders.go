package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ordersTotal,
		staleOrders,
		codesReleasedTotal,
	)
}

var (
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Order lifecycle events.",
		},
		[]string{"event"}, // 'created', 'started', 'completed'
	)

	staleOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orders_stale",
			Help: "Orders awaiting fulfilment longer than the configured threshold, as of the last sweep.",
		},
	)

	codesReleasedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codes_released_total",
			Help: "Orphaned consuming codes returned to available by the reclaim worker.",
		},
	)
)

func IncOrder(event string) {
	ordersTotal.WithLabelValues(norm(event)).Inc()
}

func SetStaleOrders(n int) { staleOrders.Set(float64(n)) }

func AddCodesReleased(n int) { codesReleasedTotal.Add(float64(n)) }
