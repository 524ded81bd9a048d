package ports

import (
	"context"
	"time"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
)

// LinkRepository defines the storage operations for link records.
// Records are never deleted.
type LinkRepository interface {
	Create(ctx context.Context, l *link.Link) error
	// GetByID returns ErrLinkNotFound when no record exists for id.
	GetByID(ctx context.Context, id string) (*link.Link, error)
	// Redeem atomically increments the hit count of an unused link generated strictly
	// after cutoff and returns the updated record. It returns ErrLinkNotRedeemable when
	// no row matched the condition.
	Redeem(ctx context.Context, id string, cutoff time.Time) (*link.Link, error)
}

// LinkService defines the link lifecycle operations
type LinkService interface {
	Issue(ctx context.Context, purpose string) (*link.Link, error)
	// IssueFor issues a link bound to email; an empty email leaves it unbound.
	IssueFor(ctx context.Context, purpose, email string) (*link.Link, error)
	Fetch(ctx context.Context, id string) (*link.Link, error)
	CheckValidity(ctx context.Context, id string) error
	Redeem(ctx context.Context, id string) (*link.Link, error)
	// Cutoff is the generation-time boundary passed to conditional redemptions.
	Cutoff() time.Time
}
