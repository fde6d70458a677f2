package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTask(t *testing.T) {
	ok := tasksProcessed.WithLabelValues("auth:delete_expired_tokens", OutcomeSuccess)
	failed := tasksProcessed.WithLabelValues("auth:delete_expired_tokens", OutcomeFailure)
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordTask("auth:delete_expired_tokens", nil)
	RecordTask("auth:delete_expired_tokens", errors.New("boom"))
	RecordTask("auth:delete_expired_tokens", nil)

	assert.Equal(t, beforeOK+2, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}

func TestRecordNotificationSent(t *testing.T) {
	before := testutil.ToFloat64(notificationsSent)
	RecordNotificationSent()
	assert.Equal(t, before+1, testutil.ToFloat64(notificationsSent))
}

func TestMiddlewareAndHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/annotations/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/annotations/abc", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/api/annotations/{id}"`), "route pattern label expected")
	assert.Contains(t, body, `status="418"`)
}
