package ports

import (
	"context"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/auth"
)

// TokenVerifier validates operator bearer tokens.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}
