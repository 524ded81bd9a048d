package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

// credentialHTTPError maps service errors to responses. Link and account failures
// are 404 with the message passed through; unexpected errors never leak details.
func (s *Server) credentialHTTPError(c echo.Context, err error) error {
	var ce ports.CredentialError
	if errors.As(err, &ce) {
		switch ce.Kind() {
		case ports.ErrKindLinkNotFound, ports.ErrKindLinkInvalid, ports.ErrKindAccountNotFound:
			return echo.NewHTTPError(http.StatusNotFound, ce.Message())
		case ports.ErrKindPasswordPolicy:
			return echo.NewHTTPError(http.StatusBadRequest, ce.Message())
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"path": c.Path(), "method": c.Request().Method}).WithError(err).Error("request failed")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// outcomeLabel is the metrics label for a service result.
func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	kind := ports.CredentialErrorKindOf(err)
	if kind == ports.ErrKindUnknown {
		return "error"
	}
	return kind.String()
}
