// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration records request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "picklebookie_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// FollowEvents counts follow.created publishes by outcome.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picklebookie_follow_events_total",
		Help: "Total follow.created events by publish outcome",
	}, []string{"outcome"})

	// Notifications counts fan-out results by outcome (sent, failed, skipped, duplicate, dropped).
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picklebookie_notifications_total",
		Help: "Total follow notifications by outcome",
	}, []string{"outcome"})

	// ReconcileRuns counts reconciliation runs by status.
	ReconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picklebookie_reconcile_runs_total",
		Help: "Total follow-count reconciliation runs by status",
	}, []string{"status"})

	// ReconcileUserFailures counts users whose counters could not be corrected.
	ReconcileUserFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picklebookie_reconcile_user_failures_total",
		Help: "Total per-user reconciliation failures",
	})

	// PostsExpired counts posts removed by the daily cleanup.
	PostsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "picklebookie_posts_expired_total",
		Help: "Total posts deleted by expiry cleanup",
	})

	// FeedSubscribers is the number of live feed connections.
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "picklebookie_feed_subscribers",
		Help: "Number of connected live feed clients",
	})

	// GeocodeLookups counts geocoder calls by outcome.
	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picklebookie_geocode_lookups_total",
		Help: "Total geocode lookups by outcome",
	}, []string{"outcome"})
)

// Middleware records request latency keyed by the chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
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
		HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
