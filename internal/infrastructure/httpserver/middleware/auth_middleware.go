package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/helpers"
)

type JWTMiddleware struct {
	verifier  ports.TokenVerifier
	adminRole string
	logger    *logrus.Logger
}

func NewJWTMiddleware(verifier ports.TokenVerifier, adminRole string, logger *logrus.Logger) *JWTMiddleware {
	return &JWTMiddleware{verifier: verifier, adminRole: adminRole, logger: logger}
}

// RequireAdmin validates the bearer token and requires the admin role
func (m *JWTMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := helpers.GetJWTTokenFromContext(c)
			if err != nil {
				return err
			}

			claims, err := m.verifier.ValidateToken(c.Request().Context(), tokenString)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path, "error": err.Error()}).Warn("JWT validation failed")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			if !claims.IsAdmin(m.adminRole) {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"subject": claims.Subject, "role": claims.Role}).Warn("non-admin token rejected")
				}
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}

			helpers.SetActorClaims(c, claims)
			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"subject": claims.Subject, "role": claims.Role}).Debug("admin token validated")
			}
			return next(c)
		}
	}
}
