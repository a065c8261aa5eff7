package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"notifyrelay/internal/stream"
)

func TestMetrics(t *testing.T) {
	hub := stream.NewHub()
	sub := hub.Subscribe()
	defer sub.Close()

	m := New(hub)
	m.NotificationsReceived.Inc()
	m.NotificationsReceived.Inc()
	m.PersistFailures.Inc()
	require.Equal(t, float64(2), testutil.ToFloat64(m.NotificationsReceived))
	require.Equal(t, float64(1), testutil.ToFloat64(m.PersistFailures))
	require.Equal(t, float64(0), testutil.ToFloat64(m.ListenerErrors))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "notifyrelay_notifications_received_total 2")
	require.Contains(t, body, "notifyrelay_stream_subscribers 1")
}
