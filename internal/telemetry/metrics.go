// Package telemetry exposes Prometheus metrics for the service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productboard_uploads_total",
			Help: "Total number of image uploads, labeled by outcome.",
		},
		[]string{"status"},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productboard_upload_bytes_total",
			Help: "Total number of encoded image bytes stored.",
		},
	)

	productsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productboard_products_created_total",
			Help: "Total number of products persisted, labeled by submission path.",
		},
		[]string{"path"},
	)

	reviewsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "productboard_reviews_created_total",
			Help: "Total number of pending review records created.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// ObserveUpload records one upload attempt.
func ObserveUpload(status string, size int) {
	uploadsTotal.WithLabelValues(status).Inc()
	if size > 0 {
		uploadBytesTotal.Add(float64(size))
	}
}

// ObserveProductCreated records a persisted product and, when a review
// record accompanied it, the review.
func ObserveProductCreated(path string, withReview bool) {
	productsCreatedTotal.WithLabelValues(path).Inc()
	if withReview {
		reviewsCreatedTotal.Inc()
	}
}

// ObserveHTTPRequest records request counters and latency.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics against
// the matched route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
