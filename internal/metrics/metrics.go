// Package metrics holds the Prometheus collectors of the catalog service.
// Collectors live on a per-instance registry so each app (and each test)
// gets its own set.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors and the registry they are registered on.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Domain
	MoviesCreated   prometheus.Counter
	MoviesDeleted   prometheus.Counter
	RatingsRecorded prometheus.Counter
	Logins          *prometheus.CounterVec // result: success, failure

	// Middleware
	CacheLookups    *prometheus.CounterVec // result: hit, miss
	RateLimited     prometheus.Counter
	EventsPublished *prometheus.CounterVec // type, result
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"method", "route"}),
		RequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		}),
		MoviesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "catalog_movies_created_total",
			Help: "Movies created",
		}),
		MoviesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "catalog_movies_deleted_total",
			Help: "Movies deleted",
		}),
		RatingsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "catalog_ratings_recorded_total",
			Help: "Ratings submitted",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_cache_lookups_total",
			Help: "Response cache lookups by result",
		}, []string{"result"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_events_published_total",
			Help: "Activity events handed to the broker",
		}, []string{"type", "result"}),
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
