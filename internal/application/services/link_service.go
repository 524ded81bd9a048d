package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

// LinkServiceConfig groups configuration parameters for the link lifecycle.
type LinkServiceConfig struct {
	ExpiryMinutes int
	// Now overrides the clock; time.Now when nil.
	Now func() time.Time
	// OnIssue is called with the purpose of every persisted link.
	OnIssue func(purpose string)
}

// LinkService issues, validates and redeems single-use links.
type LinkService struct {
	repo          ports.LinkRepository
	expiryMinutes int
	now           func() time.Time
	onIssue       func(purpose string)
	logger        *logrus.Logger
}

var _ ports.LinkService = (*LinkService)(nil)

func NewLinkService(repo ports.LinkRepository, cfg *LinkServiceConfig, logger *logrus.Logger) *LinkService {
	expiry := link.DefaultExpiryMinutes
	now := time.Now
	var onIssue func(string)
	if cfg != nil {
		onIssue = cfg.OnIssue
		if cfg.ExpiryMinutes > 0 {
			expiry = cfg.ExpiryMinutes
		}
		if cfg.Now != nil {
			now = cfg.Now
		}
	}
	return &LinkService{repo: repo, expiryMinutes: expiry, now: now, onIssue: onIssue, logger: logger}
}

// Issue creates and persists a fresh unbound link for purpose.
func (s *LinkService) Issue(ctx context.Context, purpose string) (*link.Link, error) {
	return s.IssueFor(ctx, purpose, "")
}

// IssueFor creates and persists a fresh link that only email can redeem.
func (s *LinkService) IssueFor(ctx context.Context, purpose, email string) (*link.Link, error) {
	l := &link.Link{
		ID:             uuid.NewString(),
		GenerationTime: s.now().UTC(),
		HitCount:       0,
		Purpose:        purpose,
	}
	if email = account.NormalizeEmail(email); email != "" {
		l.Email = &email
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to issue link: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"link_id": l.ID, "purpose": purpose, "bound": l.Email != nil}).Info("link issued")
	}
	if s.onIssue != nil {
		s.onIssue(purpose)
	}
	return l, nil
}

// Fetch returns the stored link or a LinkNotFound error.
func (s *LinkService) Fetch(ctx context.Context, id string) (*link.Link, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrLinkNotFound) {
			return nil, ports.NewCredentialError(ports.ErrKindLinkNotFound, "link not found", err)
		}
		return nil, fmt.Errorf("failed to fetch link: %w", err)
	}
	return l, nil
}

// CheckValidity fails with LinkInvalid when the link was already used or is expired,
// checked in that order.
func (s *LinkService) CheckValidity(ctx context.Context, id string) error {
	l, err := s.Fetch(ctx, id)
	if err != nil {
		return err
	}
	if reason := l.Reason(s.now(), s.expiryMinutes); reason != "" {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"link_id": id, "purpose": l.Purpose, "hit_count": l.HitCount}).Debug("link rejected")
		}
		return ports.NewCredentialError(ports.ErrKindLinkInvalid, reason, nil)
	}
	return nil
}

// Redeem increments the hit count of a still valid link in a single conditional store
// operation, so concurrent redemptions of one link cannot both succeed.
func (s *LinkService) Redeem(ctx context.Context, id string) (*link.Link, error) {
	l, err := s.repo.Redeem(ctx, id, s.Cutoff())
	if err != nil {
		if errors.Is(err, ports.ErrLinkNotRedeemable) {
			return nil, s.rejection(ctx, id)
		}
		return nil, fmt.Errorf("failed to redeem link: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"link_id": id, "purpose": l.Purpose}).Info("link redeemed")
	}
	return l, nil
}

// Cutoff implements ports.LinkService.
func (s *LinkService) Cutoff() time.Time {
	return link.Cutoff(s.now(), s.expiryMinutes)
}

// rejection explains why a conditional redemption of id matched no row.
func (s *LinkService) rejection(ctx context.Context, id string) error {
	if err := s.CheckValidity(ctx, id); err != nil {
		return err
	}
	// The row became valid again between the update and the re-read; only possible
	// with a clock moving backwards.
	return ports.NewCredentialError(ports.ErrKindLinkInvalid, "link is no longer valid", ports.ErrLinkNotRedeemable)
}
