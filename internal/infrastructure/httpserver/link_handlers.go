package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/helpers"
)

// checkLinkValidity lets the front end reject a dead link before asking for a password
func (s *Server) checkLinkValidity(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "link id is required")
	}

	if err := s.linkSvc.CheckValidity(c.Request().Context(), id); err != nil {
		return s.credentialHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": true})
}

// issueLink creates a link for an arbitrary purpose, e.g. an admin "Set Password" invite.
// With an email the link can only set that account's password.
func (s *Server) issueLink(c echo.Context) error {
	actor, err := helpers.GetActorFromContext(c)
	if err != nil {
		return err
	}
	var req link.IssueLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Purpose = strings.TrimSpace(req.Purpose)
	if req.Purpose == "" {
		req.Purpose = link.PurposeSetPassword
	}

	l, err := s.linkSvc.IssueFor(c.Request().Context(), req.Purpose, req.Email)
	if err != nil {
		return s.credentialHTTPError(c, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"link_id": l.ID, "purpose": l.Purpose, "bound": l.Email != nil, "actor": actor.Subject}).Info("link issued by admin")
	}
	return c.JSON(http.StatusCreated, l)
}
