package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func init() { register(salesTotal, salesRevenue) }

var (
	salesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_total",
			Help: "Direct purchases recorded in the sales ledger.",
		},
		[]string{"card"},
	)

	salesRevenue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_revenue",
			Help: "Sum of direct purchase prices.",
		},
		[]string{"card"},
	)
)

func ObserveSale(card string, price decimal.Decimal) {
	salesTotal.WithLabelValues(norm(card)).Inc()
	f, _ := price.Float64()
	salesRevenue.WithLabelValues(norm(card)).Add(f)
}
