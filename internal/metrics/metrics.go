// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CapturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocapture_captures_total",
		Help: "Capture submissions by result (saved, invalid, error)",
	}, []string{"result"})
	IPLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocapture_ip_lookups_total",
		Help: "Fallback public IP lookups by outcome (success, failure)",
	}, []string{"outcome"})
	RecordsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocapture_records_deleted_total",
		Help: "Records removed through the admin dashboard",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geocapture_http_requests_total",
		Help: "HTTP requests by method, route template and status",
	}, []string{"method", "route", "status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geocapture_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(CapturesTotal)
	prometheus.MustRegister(IPLookupsTotal)
	prometheus.MustRegister(RecordsDeletedTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }
