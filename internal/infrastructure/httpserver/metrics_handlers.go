package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	customMiddleware "github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/middleware"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds",
		},
		[]string{"method", "endpoint"},
	)

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	linksIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_issued_total",
			Help: "Links issued by any flow (admin, reset, welcome), by purpose",
		},
		[]string{"purpose"},
	)

	passwordSetTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "password_set_attempts_total",
			Help: "Password set attempts through links, by outcome",
		},
		[]string{"outcome"},
	)

	linkEmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_emails_total",
			Help: "Reset and welcome email requests, by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(requestsInFlight)
	prometheus.MustRegister(linksIssuedTotal)
	prometheus.MustRegister(passwordSetTotal)
	prometheus.MustRegister(linkEmailsTotal)
}

// RecordLinkIssued counts one persisted link. The link service calls it for
// admin, reset and welcome issuance alike.
func RecordLinkIssued(purpose string) {
	linksIssuedTotal.WithLabelValues(purpose).Inc()
}

func httpMetrics() customMiddleware.HTTPMetrics {
	return customMiddleware.HTTPMetrics{
		Requests: requestsTotal,
		Duration: requestDuration,
		InFlight: requestsInFlight,
	}
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.Info("Prometheus metrics initialized and registered")
		s.logger.WithFields(map[string]interface{}{
			"http_requests_total":   "Counter for HTTP requests by method, endpoint, status",
			"http_request_duration": "Histogram for HTTP request duration by method, endpoint",
			"http_in_flight":        "Gauge for requests being served",
			"links_issued_total":    "Counter for issued links by purpose",
			"password_set_attempts": "Counter for password set attempts by outcome",
			"link_emails_total":     "Counter for reset/welcome email requests by purpose, outcome",
			"metrics_endpoint":      "/metrics",
		}).Debug("Available Prometheus metrics")
	}
}

// Metrics handler
func (s *Server) metricsHandler() http.Handler {
	return promhttp.Handler()
}

// metricsEndpoint wraps the metrics handler with logging
func (s *Server) metricsEndpoint(c echo.Context) error {
	if s.logger != nil {
		s.logger.Debug("Serving Prometheus metrics")
	}
	handler := s.metricsHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
