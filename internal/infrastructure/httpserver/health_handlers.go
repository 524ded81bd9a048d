package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	serviceName        = "perfmgmt-credential-links"
	healthCheckTimeout = 2 * time.Second

	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

type healthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Service      string            `json:"service"`
	Dependencies map[string]string `json:"dependencies"`
}

// healthCheck answers 503 only when a required dependency is down; a failing
// optional one (the rate-limit store) reports degraded with 200.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:       statusHealthy,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Service:      serviceName,
		Dependencies: make(map[string]string, len(s.healthCheckers)),
	}
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		err := hc.Check(ctx)
		if err == nil {
			resp.Dependencies[hc.Name()] = statusHealthy
			continue
		}
		resp.Dependencies[hc.Name()] = statusUnhealthy
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"dependency": hc.Name(), "required": hc.Required()}).WithError(err).Warn("Health check failed")
		}
		switch {
		case hc.Required():
			resp.Status = statusUnhealthy
		case resp.Status == statusHealthy:
			resp.Status = statusDegraded
		}
	}

	code := http.StatusOK
	if resp.Status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
