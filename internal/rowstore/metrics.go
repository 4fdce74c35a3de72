package rowstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestsTotal counts row store calls by driver, table and outcome.
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "happyapp",
		Subsystem: "rowstore",
		Name:      "requests_total",
		Help:      "Row store calls by driver, table and outcome.",
	},
	[]string{"driver", "table", "outcome"},
)

// Observe records the outcome of one call.
func Observe(driver, table string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RequestsTotal.WithLabelValues(driver, table, outcome).Inc()
}
