// Package metrics exposes the relay's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aurachat",
		Subsystem: "voice",
		Name:      "active_channels",
		Help:      "Voice channels currently held in the registry.",
	})

	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aurachat",
		Subsystem: "voice",
		Name:      "live_sessions",
		Help:      "Open signaling websocket sessions.",
	})

	SignalsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aurachat",
		Subsystem: "voice",
		Name:      "signals_pushed_total",
		Help:      "Signals delivered directly to a live session.",
	})

	SignalsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aurachat",
		Subsystem: "voice",
		Name:      "signals_queued_total",
		Help:      "Signals appended to a durable per-channel queue.",
	})

	SignalsPulled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aurachat",
		Subsystem: "voice",
		Name:      "signals_pulled_total",
		Help:      "Queued signals consumed by pull requests.",
	})

	SignalsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aurachat",
		Subsystem: "voice",
		Name:      "signals_evicted_total",
		Help:      "Queued signals dropped by the per-channel cap.",
	})
)
