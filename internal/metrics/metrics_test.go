package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestMetrics_Recording checks counters and gauges follow the recorded events.
func TestMetrics_Recording(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveSample(-80, 3)
	m.IgnoreAdvertisement()
	m.AlertStarted("distance_weak")
	m.AlertEnded(ClearedBySafe)
	m.Notification(OutcomeDelivered)

	require.InDelta(t, 1, testutil.ToFloat64(m.AdvertisementsAccepted), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.AdvertisementsIgnored), 0)
	require.InDelta(t, -80, testutil.ToFloat64(m.LastRSSI), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.ConsecutiveWeak), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.AlertsTriggered.WithLabelValues("distance_weak")), 0)
	require.InDelta(t, 0, testutil.ToFloat64(m.AlertActive), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.Notifications.WithLabelValues(OutcomeDelivered)), 0)
}

// TestMetrics_NilIsNoop ensures a nil collector set can be used freely.
func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics

	require.NotPanics(t, func() {
		m.ObserveSample(-60, 0)
		m.AlertStarted("signal_lost")
		m.AlertEnded(ClearedByExpiry)
		m.Notification(OutcomeFailed)
	})
}

// TestRouter serves health and metrics endpoints.
func TestRouter(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	m.AlertStarted("signal_lost")

	srv := httptest.NewServer(m.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz") //nolint:noctx // Test request.
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics") //nolint:noctx // Test request.
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `tagguard_alerts_triggered_total{reason="signal_lost"} 1`)
}
