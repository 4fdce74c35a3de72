package almanac

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var factFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "happyapp",
		Subsystem: "almanac",
		Name:      "fact_fallbacks_total",
		Help:      "Fact-of-day requests answered with the placeholder.",
	},
	[]string{"reason"},
)
