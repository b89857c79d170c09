package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assetvault_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assetvault_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	vaultsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assetvault_vaults_total",
		Help: "Total number of vaults.",
	})

	secretsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assetvault_secrets_total",
		Help: "Total number of vault secrets.",
	})

	rotationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assetvault_rotations_total",
		Help: "Total number of password rotations by outcome.",
	}, []string{"outcome"})

	accessDeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assetvault_access_denied_total",
		Help: "Total number of denied vault access checks.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, vaultsTotal,
		secretsTotal, rotationsTotal, accessDeniedTotal)
}

// MetricsHandler returns the Prometheus metrics HTTP handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// metricsMiddleware records request metrics.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rr := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rr, r)

		dur := time.Since(start).Seconds()
		status := strconv.Itoa(rr.statusCode)
		requestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(dur)
	})
}
