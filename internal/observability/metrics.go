package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Chat room metrics
	RoomConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_room_connections_active",
			Help: "Number of active WebSocket connections per event room",
		},
		[]string{"event_id"},
	)

	RoomFramesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_room_frames_sent_total",
			Help: "Total number of frames delivered to room members",
		},
		[]string{"event_id", "type"},
	)

	RoomFramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_room_frames_dropped_total",
			Help: "Frames dropped because a member's send buffer was full",
		},
		[]string{"event_id"},
	)

	RoomJoinsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_room_joins_denied_total",
			Help: "Room join attempts rejected by the authorization gate",
		},
		[]string{"reason"},
	)

	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_persisted_total",
			Help: "Total number of chat messages written to the store",
		},
	)

	NotificationsFannedOut = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_fanned_out_total",
			Help: "Total number of notifications created from chat activity",
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "table"},
	)
)
