// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsRequests(t *testing.T) {
	r := NewRecorder()

	r.ObserveRequest(http.MethodPost, OutcomeRelayed)
	r.ObserveRequest(http.MethodPost, OutcomeRelayed)
	r.ObserveRequest(http.MethodPost, OutcomeBadRequest)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requestsTotal.WithLabelValues(http.MethodPost, OutcomeRelayed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requestsTotal.WithLabelValues(http.MethodPost, OutcomeBadRequest)))
}

func TestRecorderBoundsMethodLabel(t *testing.T) {
	r := NewRecorder()

	for i := 0; i < 200; i++ {
		r.ObserveRequest(fmt.Sprintf("X%d", i), OutcomeMethodNotAllowed)
	}
	r.ObserveRequest(http.MethodGet, OutcomeMethodNotAllowed)
	r.ObserveRequest("post", OutcomeMethodNotAllowed)

	count, err := testutil.GatherAndCount(r.Registry(), "api_relay_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 202.0, testutil.ToFloat64(r.requestsTotal.WithLabelValues(methodOther, OutcomeMethodNotAllowed)))
}

func TestRecorderObservesUpstreamLatency(t *testing.T) {
	r := NewRecorder()

	r.ObserveUpstream(OutcomeRelayed, 40*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(r.upstreamLatency))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveRequest(http.MethodGet, OutcomeMethodNotAllowed)
		r.ObserveUpstream(OutcomeServerError, time.Second)
	})
}

func TestHandlerExposesRelayMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveRequest(http.MethodOptions, OutcomeOptions)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `api_relay_requests_total{method="OPTIONS",outcome="options"} 1`), body)
}
