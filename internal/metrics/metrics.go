// Package metrics exposes Prometheus collectors for the dashboard service.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cmsadmin/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cmsadmin"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	uploads         *prometheus.CounterVec
	importedRows    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served API requests by route and status",
		}, []string{"method", "route", "status"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls to the content API by operation and status",
		}, []string{"op", "status"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of calls to the content API",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Cloud file uploads by result",
		}, []string{"result"}),
		importedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_import_rows_total",
			Help:      "Spreadsheet rows parsed and confirmed",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.backendRequests,
		m.backendDuration,
		m.uploads,
		m.importedRows,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBackend records one content API call. status is 0 when the request
// never got an answer.
func (m *Metrics) ObserveBackend(op string, status int, d time.Duration) {
	m.backendRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.backendDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ImportedRows counts rows at stage "parsed" or "confirmed"
func (m *Metrics) ImportedRows(stage string, n int) {
	m.importedRows.WithLabelValues(stage).Add(float64(n))
}

// Middleware counts served requests by chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Uploader counts the outcome of every upload made through next
func (m *Metrics) Uploader(next storage.Uploader) storage.Uploader {
	return &countingUploader{next: next, m: m}
}

type countingUploader struct {
	next storage.Uploader
	m    *Metrics
}

func (u *countingUploader) Upload(ctx context.Context, obj storage.Object) (storage.Uploaded, error) {
	out, err := u.next.Upload(ctx, obj)
	result := "ok"
	if err != nil {
		result = "error"
	}
	u.m.uploads.WithLabelValues(result).Inc()
	return out, err
}

func (u *countingUploader) Delete(ctx context.Context, publicID string) error {
	return u.next.Delete(ctx, publicID)
}
