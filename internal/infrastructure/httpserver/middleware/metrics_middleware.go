package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that hit no route, so probes for random link
// ids do not create a series each.
const unmatchedRoute = "unmatched"

// HTTPMetrics are the request collectors registered by the server.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

type MetricsMiddleware struct {
	metrics HTTPMetrics
	skip    map[string]struct{}
}

// NewMetricsMiddleware records every route except skipPaths.
func NewMetricsMiddleware(metrics HTTPMetrics, skipPaths ...string) *MetricsMiddleware {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return &MetricsMiddleware{metrics: metrics, skip: skip}
}

// CollectHTTPMetrics labels by route template. Errors returned by handlers are
// rendered after the chain unwinds, so their status comes from the error.
func (m *MetricsMiddleware) CollectHTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			if _, ok := m.skip[route]; ok {
				return next(c)
			}
			if m.metrics.InFlight != nil {
				m.metrics.InFlight.Inc()
				defer m.metrics.InFlight.Dec()
			}

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start).Seconds()

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			method := c.Request().Method
			m.metrics.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.metrics.Duration.WithLabelValues(method, route).Observe(elapsed)
			return err
		}
	}
}
