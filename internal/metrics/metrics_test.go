package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BountyEvent("created")
		m.Submission("accepted")
		m.Verification("sent")
		m.ObserveRequest(http.MethodGet, "/api/health", http.StatusOK, time.Millisecond)
	})
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.BountyEvent("created")
	m.BountyEvent("created")
	m.Submission("duplicate")
	m.Verification("sent")
	m.ObserveRequest(http.MethodPost, "/api/bounties", http.StatusCreated, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bounties.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("sent")))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `bounty_http_request_duration_seconds_count{method="POST",route="/api/bounties",status="201"} 1`)
}
