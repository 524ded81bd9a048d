package ports

import (
	"context"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
)

// AccountRepository is the narrow view of the employee store this subsystem needs.
type AccountRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
	GetFirstName(ctx context.Context, email string) (string, error)
	// SetEncodedSecret only touches active accounts; ErrAccountNotFound otherwise.
	SetEncodedSecret(ctx context.Context, encodedSecret, email string) error
}
