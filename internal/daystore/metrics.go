package daystore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loadFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "happyapp",
			Subsystem: "daystore",
			Name:      "load_fallbacks_total",
			Help:      "Loads that returned an empty bundle because stored data was unreadable.",
		},
		[]string{"reason"},
	)

	moveEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "happyapp",
			Subsystem: "daystore",
			Name:      "move_events_total",
			Help:      "Cross-day event moves by outcome.",
		},
		[]string{"mode", "outcome"},
	)
)

const (
	reasonStoreError = "store_error"
	reasonMalformed  = "malformed"
)
