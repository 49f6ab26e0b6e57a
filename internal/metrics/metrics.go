// Package metrics exposes Prometheus counters for the realtime hub.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "noteroom_connections_active",
			Help: "Number of live authenticated connections",
		},
	)

	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "noteroom_rooms_active",
			Help: "Number of rooms with at least one member",
		},
	)

	EventsBroadcast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noteroom_events_broadcast_total",
			Help: "Events fanned out to rooms, by event name",
		},
		[]string{"event"},
	)

	FramesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "noteroom_frames_dropped_total",
			Help: "Frames dropped because a connection's send buffer was full",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ConnectionsActive,
		RoomsActive,
		EventsBroadcast,
		FramesDropped,
	)
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
