package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/adapter/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/stores/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	for range 2 {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stores/acme", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body,
		`storebuilder_http_requests_total{code="418",method="GET",route="/api/stores/{slug}"} 2`,
	), body)
}

func TestObservePaymentNotification(t *testing.T) {
	m := metrics.New()
	m.ObservePaymentNotification(metrics.NotificationApplied)
	m.ObservePaymentNotification(metrics.NotificationReplayed)
	m.ObservePaymentNotification(metrics.NotificationReplayed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`storebuilder_payments_notifications_total{result="replayed"} 2`)
	assert.Contains(t, rec.Body.String(),
		`storebuilder_payments_notifications_total{result="applied"} 1`)
}
