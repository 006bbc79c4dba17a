package observability

import (
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetrics(t *testing.T) {
	t.Run("request_duration_accepts_observations", func(t *testing.T) {
		HTTPRequestDuration.WithLabelValues("GET", "/api/v1/events/event-1", "200").Observe(0.05)
		HTTPRequestDuration.WithLabelValues("POST", "/api/v1/auth/login", "401").Observe(0.1)
	})

	t.Run("requests_total_counts", func(t *testing.T) {
		counter := HTTPRequestsTotal.WithLabelValues("GET", "/metrics-test-path", "200")
		before := promtest.ToFloat64(counter)

		counter.Inc()
		counter.Inc()

		assert.Equal(t, before+2, promtest.ToFloat64(counter))
	})
}

func TestRoomMetrics(t *testing.T) {
	t.Run("active_connections_gauge", func(t *testing.T) {
		gauge := RoomConnectionsActive.WithLabelValues("event-metrics-1")

		gauge.Inc()
		gauge.Inc()
		assert.Equal(t, 2.0, promtest.ToFloat64(gauge))

		gauge.Dec()
		assert.Equal(t, 1.0, promtest.ToFloat64(gauge))
	})

	t.Run("frames_sent_by_type", func(t *testing.T) {
		counter := RoomFramesSent.WithLabelValues("event-metrics-2", "chat_message")
		before := promtest.ToFloat64(counter)

		counter.Inc()

		assert.Equal(t, before+1, promtest.ToFloat64(counter))
	})

	t.Run("frames_dropped", func(t *testing.T) {
		counter := RoomFramesDropped.WithLabelValues("event-metrics-3")
		before := promtest.ToFloat64(counter)

		counter.Inc()

		assert.Equal(t, before+1, promtest.ToFloat64(counter))
	})

	t.Run("joins_denied_by_reason", func(t *testing.T) {
		for _, reason := range []string{"anonymous", "event_not_found", "no_interest", "error"} {
			RoomJoinsDenied.WithLabelValues(reason).Inc()
		}
	})
}

func TestPersistenceMetrics(t *testing.T) {
	t.Run("messages_persisted", func(t *testing.T) {
		before := promtest.ToFloat64(MessagesPersisted)
		MessagesPersisted.Inc()
		assert.Equal(t, before+1, promtest.ToFloat64(MessagesPersisted))
	})

	t.Run("notifications_fanned_out", func(t *testing.T) {
		before := promtest.ToFloat64(NotificationsFannedOut)
		NotificationsFannedOut.Add(3)
		assert.Equal(t, before+3, promtest.ToFloat64(NotificationsFannedOut))
	})

	t.Run("db_query_duration", func(t *testing.T) {
		DBQueryDuration.WithLabelValues("insert", "chat_messages").Observe(0.002)
		DBQueryDuration.WithLabelValues("select", "chat_messages").Observe(0.001)
	})
}
