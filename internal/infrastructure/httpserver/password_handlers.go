package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/helpers"
)

// setPassword consumes a link and stores the new password
func (s *Server) setPassword(c echo.Context) error {
	var req account.SetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	req.LinkID = strings.TrimSpace(req.LinkID)
	if req.Password == "" || req.Email == "" || req.LinkID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password, email and link_id are required")
	}

	err := s.credentialSvc.SetPassword(c.Request().Context(), req.Password, req.Email, req.LinkID)
	passwordSetTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return s.credentialHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated successfully"})
}

// requestPasswordReset emails a reset link to an existing account
func (s *Server) requestPasswordReset(c echo.Context) error {
	var req account.EmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	err := s.credentialSvc.ResetPasswordEmail(c.Request().Context(), req.Email)
	linkEmailsTotal.WithLabelValues(link.PurposeResetPassword, outcomeLabel(err)).Inc()
	if err != nil {
		return s.credentialHTTPError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{"message": "password reset email sent"})
}

// resendWelcomeEmail is admin only
func (s *Server) resendWelcomeEmail(c echo.Context) error {
	actor, err := helpers.GetActorFromContext(c)
	if err != nil {
		return err
	}
	var req account.EmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	err = s.credentialSvc.ResendWelcomeEmail(c.Request().Context(), req.Email)
	linkEmailsTotal.WithLabelValues(link.PurposeWelcome, outcomeLabel(err)).Inc()
	if err != nil {
		return s.credentialHTTPError(c, err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"actor": actor.Subject}).Info("welcome email resent by admin")
	}

	return c.JSON(http.StatusAccepted, map[string]string{"message": "welcome email sent"})
}
