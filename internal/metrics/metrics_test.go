package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetrics_CountersAndGauges(t *testing.T) {
	m := New(false)
	m.BatchOutcome(OutcomeOK)
	m.BatchOutcome(OutcomeOK)
	m.BatchOutcome(OutcomeDropped)
	m.RunFinished("partial")
	m.BatchStarted()
	m.BatchStarted()
	m.BatchDone()
	m.SetQueueDepth(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.batches.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batches.WithLabelValues(OutcomeDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.queueDepth))
}

func TestMetrics_ModelCallExposed(t *testing.T) {
	m := New(false)
	m.ModelCall("primary", 1500*time.Millisecond, true, 1200, 300)
	m.ModelCall("fallback", time.Second, false, 0, 0)

	out := scrape(t, m)
	assert.Contains(t, out, `lexgest_model_call_seconds_count{result="ok",tier="primary"} 1`)
	assert.Contains(t, out, `lexgest_model_call_seconds_count{result="error",tier="fallback"} 1`)
	assert.Contains(t, out, `lexgest_model_tokens_total{direction="input",tier="primary"} 1200`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BatchOutcome(OutcomeOK)
		m.RunFinished("completed")
		m.ModelCall("primary", time.Second, true, 1, 1)
		m.BatchStarted()
		m.BatchDone()
		m.SetQueueDepth(1)
	})
	assert.Nil(t, m.Registry())
}
