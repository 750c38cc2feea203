package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		codesGeneratedTotal,
		codeAllocationsTotal,
		codeChecksTotal,
		codesExportedTotal,
	)
}

var (
	codesGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codes_generated_total",
			Help: "Activation codes created by batch generation.",
		},
	)

	codeAllocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_allocations_total",
			Help: "Attempts to move a code from available to consuming.",
		},
		[]string{"source", "result"}, // source: 'purchase', 'redeem'; result: 'ok', 'out_of_stock', 'conflict', 'not_found', 'error'
	)

	codeChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_checks_total",
			Help: "Availability checks by outcome.",
		},
		[]string{"result"}, // 'available', 'unavailable', 'limited'
	)

	codesExportedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codes_exported_total",
			Help: "Codes included in export batches.",
		},
	)
)

func AddCodesGenerated(n int) { codesGeneratedTotal.Add(float64(n)) }

func IncCodeAllocation(source, result string) {
	codeAllocationsTotal.WithLabelValues(norm(source), norm(result)).Inc()
}

func IncCodeCheck(result string) {
	codeChecksTotal.WithLabelValues(norm(result)).Inc()
}

func AddCodesExported(n int) { codesExportedTotal.Add(float64(n)) }
