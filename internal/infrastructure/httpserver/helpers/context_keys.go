package helpers

import (
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/auth"
)

type ctxKey string

const (
	keyActorClaims  ctxKey = "actor_claims"
	keyRateLimitKey ctxKey = "rate_limit_key"
)

func SetActorClaims(c echo.Context, claims *auth.Claims) { c.Set(string(keyActorClaims), claims) }
func GetActorClaimsRaw(c echo.Context) (*auth.Claims, bool) {
	v := c.Get(string(keyActorClaims))
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func SetRateLimitKey(c echo.Context, key string) { c.Set(string(keyRateLimitKey), key) }
func GetRateLimitKeyRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyRateLimitKey))
	s, ok := v.(string)
	return s, ok
}
