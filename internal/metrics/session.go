package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks currently open ratchet sessions.
	ActiveSessions = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of active ratchet sessions",
		},
	)

	// SessionMessages tracks ratchet messages by direction.
	SessionMessages = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "messages_total",
			Help:      "Total ratchet messages processed",
		},
		[]string{"direction"}, // sent, received
	)

	// SkippedKeysStored tracks out-of-order message keys cached across sessions.
	SkippedKeysStored = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "skipped_keys_total",
			Help:      "Total skipped message keys stored for out-of-order delivery",
		},
	)
)
