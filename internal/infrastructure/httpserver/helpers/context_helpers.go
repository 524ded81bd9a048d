package helpers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/auth"
)

// GetActorFromContext returns the claims set by the admin middleware
func GetActorFromContext(c echo.Context) (*auth.Claims, error) {
	claims, ok := GetActorClaimsRaw(c)
	if !ok || claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid actor context")
	}
	return claims, nil
}

// ActorSubject returns the token subject, or "" for anonymous requests
func ActorSubject(c echo.Context) string {
	if claims, ok := GetActorClaimsRaw(c); ok && claims != nil {
		return claims.Subject
	}
	return ""
}

func GetJWTTokenFromContext(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}
	return token, nil
}

// ClientKey identifies the caller for rate limiting
func ClientKey(c echo.Context) string {
	return "ip:" + c.RealIP()
}
