// Package metrics exposes the Prometheus collectors shared by the API server
// and the task worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Task outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marginalia_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marginalia_tasks_processed_total",
			Help: "Background tasks processed by type and outcome",
		},
		[]string{"type", "outcome"},
	)
	notificationsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marginalia_notifications_sent_total",
			Help: "Reply notifications handed to the mailer",
		},
	)
)

// Middleware records request duration, labelled by the chi route pattern so
// path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// RecordTask counts a processed task.
func RecordTask(taskType string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	tasksProcessed.WithLabelValues(taskType, outcome).Inc()
}

// RecordNotificationSent counts a notification handed to the mailer.
func RecordNotificationSent() {
	notificationsSent.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
