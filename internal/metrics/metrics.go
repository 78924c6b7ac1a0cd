// Package metrics holds the Prometheus collectors of the verification service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docverify"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	DocumentsIssued prometheus.Counter
	CodesRotated    prometheus.Counter
	CodeCollisions  prometheus.Counter
	Verifications   *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsIssued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_issued_total",
			Help:      "Total number of documents issued.",
		}),
		CodesRotated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codes_rotated_total",
			Help:      "Total number of public code rotations.",
		}),
		CodeCollisions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_collisions_total",
			Help:      "Generated public codes that were already taken.",
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Recorded verifications by resolved status.",
		}, []string{"status"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// IncDocumentsIssued increments the issued documents counter by 1.
func (m *Metrics) IncDocumentsIssued() { m.DocumentsIssued.Inc() }

// IncCodesRotated increments the rotations counter by 1.
func (m *Metrics) IncCodesRotated() { m.CodesRotated.Inc() }

// IncCodeCollisions increments the collisions counter by 1.
func (m *Metrics) IncCodeCollisions() { m.CodeCollisions.Inc() }

// IncVerifications counts one recorded verification with the given status.
func (m *Metrics) IncVerifications(status string) {
	m.Verifications.WithLabelValues(status).Inc()
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
