package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	forecasts       *prometheus.CounterVec
	forecastSeconds prometheus.Histogram
	requests        *prometheus.CounterVec
	requestSeconds  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		forecasts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pembenihan_forecasts_total",
			Help: "Forecast requests by outcome.",
		}, []string{"outcome"}),
		forecastSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pembenihan_forecast_duration_seconds",
			Help:    "Duration of a forecast pass.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pembenihan_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pembenihan_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *metrics) observeRequest(method, route string, status int, latency time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestSeconds.WithLabelValues(route).Observe(latency.Seconds())
}
