package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordEnhancement("ok")
	m.RecordEnhancement("ok")
	m.RecordEnhancement("transport")
	m.RecordStrategy("whole_text")
	m.RecordProviderCall("openai", true, 300*time.Millisecond)
	m.RecordHTTPRequest(http.MethodPost, "/v1/messages", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.enhancementsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enhancementsTotal.WithLabelValues("transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recoveryStrategies.WithLabelValues("whole_text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/v1/messages", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.providerDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEnhancement("ok")
		m.RecordStrategy("terminal")
		m.RecordProviderCall("openai", false, time.Second)
		m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordStrategy("fenced_block")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `enhancer_recovery_strategy_total{strategy="fenced_block"} 1`))
}
