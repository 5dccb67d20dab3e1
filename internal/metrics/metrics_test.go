package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveResolution("resolved")
	m.ObserveResolution("resolved")
	m.ObserveResolution("not_found")
	m.ObserveLinkCreated(false)
	m.ObserveLinkCreated(true)
	m.ObserveVisitFailure()
	m.ObserveCache("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolutions.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.linksCreated.WithLabelValues("anonymous")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.linksCreated.WithLabelValues("account")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.visitRecordFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheEvents.WithLabelValues("hit")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveResolution("resolved")
		m.ObserveLinkCreated(true)
		m.ObserveVisitFailure()
		m.ObserveCache("miss")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveResolution("expired")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `securelink_resolutions_total{outcome="expired"} 1`)
}
