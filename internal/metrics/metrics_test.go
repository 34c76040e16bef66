package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_New(t *testing.T) {
	m := New()
	assert.NotNil(t, m.ActivitiesTotal)
	assert.NotNil(t, m.SyncCyclesTotal)
	assert.NotNil(t, m.SyncDuration)
	assert.NotNil(t, m.ErrorsTotal)
	assert.NotNil(t, m.PendingEntries)
	assert.NotNil(t, m.AutoSyncActive)
}

func TestMetrics_RecordActivity(t *testing.T) {
	m := New()
	m.RecordActivity("message", "committed")
	m.RecordActivity("message", "committed")
	m.RecordActivity("calendar_event", "pending")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `trackd_activities_total{kind="message",outcome="committed"} 2`)
	assert.Contains(t, body, `trackd_activities_total{kind="calendar_event",outcome="pending"} 1`)
}

func TestMetrics_RecordSyncCycle(t *testing.T) {
	m := New()
	m.RecordSyncCycle("ok", 1.5)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `trackd_sync_cycles_total{result="ok"} 1`)
	assert.Contains(t, body, "trackd_sync_duration_seconds")
}

func TestMetrics_RecordError(t *testing.T) {
	m := New()
	m.RecordError("fetch", "timeout")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `trackd_errors_total{stage="fetch",type="timeout"} 1`)
}

func TestMetrics_Gauges(t *testing.T) {
	m := New()
	m.SetPendingEntries(3)
	m.SetAutoSyncActive(true)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "trackd_pending_entries 3")
	assert.Contains(t, body, "trackd_auto_sync_active 1")

	m.SetAutoSyncActive(false)
	body = getMetricsBody(t, m)
	assert.Contains(t, body, "trackd_auto_sync_active 0")
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordActivity("message", "committed")
	m.RecordSyncCycle("ok", 1)
	m.RecordError("fetch", "timeout")
	m.SetPendingEntries(1)
	m.SetAutoSyncActive(true)
}
