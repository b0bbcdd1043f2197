// Package metrics holds the Prometheus instrumentation shared across the
// server. Collectors register against the default registry and are exposed
// on the HTTP port under /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tictactoe"

var (
	GamesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "games_active",
		Help:      "Number of sessions currently held by the registry.",
	})

	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections_active",
		Help:      "Number of open WebSocket connections.",
	})

	UpdatesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_published_total",
		Help:      "Total snapshots published on the update bus.",
	})

	UpdatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_dropped_total",
		Help:      "Total snapshots dropped because a subscriber buffer was full.",
	})

	GamesReaped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_reaped_total",
		Help:      "Total idle sessions evicted by the reaper.",
	})

	MovesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moves_rejected_total",
		Help:      "Total moves rejected by validation.",
	})
)
