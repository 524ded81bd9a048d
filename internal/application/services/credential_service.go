package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	"github.com/avatarctic/perfmgmt-saas/internal/utils"
)

// CredentialService sets passwords through links and sends reset/welcome links.
type CredentialService struct {
	links        ports.LinkService
	accounts     ports.AccountRepository
	credentials  ports.CredentialRepository
	encoder      ports.SecretEncoder
	emailService ports.EmailService
	baseURL      string
	logger       *logrus.Logger
}

var _ ports.CredentialService = (*CredentialService)(nil)

func NewCredentialService(links ports.LinkService, accounts ports.AccountRepository, credentials ports.CredentialRepository, encoder ports.SecretEncoder, emailService ports.EmailService, baseURL string, logger *logrus.Logger) *CredentialService {
	return &CredentialService{
		links:        links,
		accounts:     accounts,
		credentials:  credentials,
		encoder:      encoder,
		emailService: emailService,
		baseURL:      strings.TrimRight(baseURL, "/"),
		logger:       logger,
	}
}

// SetPassword validates the link and the password, then stores the encoded secret and
// consumes the link in one store transaction. A link bound to another account is
// rejected as invalid and stays unused.
func (s *CredentialService) SetPassword(ctx context.Context, password, email, linkID string) error {
	email = account.NormalizeEmail(email)
	if err := s.links.CheckValidity(ctx, linkID); err != nil {
		return err
	}

	if err := utils.ValidatePasswordStrength(password); err != nil {
		return ports.NewCredentialError(ports.ErrKindPasswordPolicy, err.Error(), err)
	}

	encoded, err := s.encoder.Encode(password)
	if err != nil {
		return fmt.Errorf("failed to encode password: %w", err)
	}

	l, err := s.credentials.CommitSecret(ctx, linkID, email, encoded, s.links.Cutoff())
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrLinkNotRedeemable):
			return s.commitRejection(ctx, linkID, email, err)
		case errors.Is(err, ports.ErrLinkNotFound):
			return ports.NewCredentialError(ports.ErrKindLinkNotFound, "link not found", err)
		case errors.Is(err, ports.ErrAccountNotFound):
			return ports.NewCredentialError(ports.ErrKindAccountNotFound, "account not found", err)
		}
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"link_id": linkID, "email": email}).WithError(err).Error("failed to commit password")
		}
		return fmt.Errorf("failed to commit password: %w", err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"link_id": l.ID, "purpose": l.Purpose, "email": email}).Info("password set through link")
	}
	return nil
}

// commitRejection explains a commit that matched no link row: used or expired
// since the first check, or bound to another account.
func (s *CredentialService) commitRejection(ctx context.Context, linkID, email string, cause error) error {
	if err := s.links.CheckValidity(ctx, linkID); err != nil {
		return err
	}
	l, err := s.links.Fetch(ctx, linkID)
	if err != nil {
		return err
	}
	if !l.IssuedFor(email) {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"link_id": linkID, "purpose": l.Purpose, "email": email}).Warn("link presented for another account")
		}
		return ports.NewCredentialError(ports.ErrKindLinkInvalid, link.MismatchMessage, cause)
	}
	return ports.NewCredentialError(ports.ErrKindLinkInvalid, "link is no longer valid", cause)
}

// ResetPasswordEmail issues a reset link for an existing account and emails it.
func (s *CredentialService) ResetPasswordEmail(ctx context.Context, email string) error {
	firstName, linkURL, err := s.prepareLink(ctx, email, link.PurposeResetPassword)
	if err != nil {
		return err
	}
	if err := s.emailService.SendPasswordResetEmail(ctx, email, firstName, linkURL); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// ResendWelcomeEmail issues a welcome link for an existing account and emails it.
func (s *CredentialService) ResendWelcomeEmail(ctx context.Context, email string) error {
	firstName, linkURL, err := s.prepareLink(ctx, email, link.PurposeWelcome)
	if err != nil {
		return err
	}
	if err := s.emailService.SendWelcomeEmail(ctx, email, firstName, linkURL); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *CredentialService) prepareLink(ctx context.Context, email, purpose string) (string, string, error) {
	email = account.NormalizeEmail(email)
	exists, err := s.accounts.Exists(ctx, email)
	if err != nil {
		return "", "", fmt.Errorf("failed to look up account: %w", err)
	}
	if !exists {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"email": email, "purpose": purpose}).Debug("link requested for unknown account")
		}
		return "", "", ports.NewCredentialError(ports.ErrKindAccountNotFound, "account not found", ports.ErrAccountNotFound)
	}

	firstName, err := s.accounts.GetFirstName(ctx, email)
	if err != nil {
		return "", "", fmt.Errorf("failed to get account name: %w", err)
	}

	l, err := s.links.IssueFor(ctx, purpose, email)
	if err != nil {
		return "", "", err
	}

	return firstName, BuildLinkURL(s.baseURL, l.ID, email), nil
}

// BuildLinkURL returns the front-end URL that carries a link id and the encoded email.
func BuildLinkURL(baseURL, linkID, email string) string {
	q := url.Values{}
	q.Set("link", linkID)
	q.Set("email", EncodeEmailParam(email))
	return fmt.Sprintf("%s/set-password?%s", strings.TrimRight(baseURL, "/"), q.Encode())
}

// EncodeEmailParam makes an email address safe to embed in a URL.
func EncodeEmailParam(email string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(email))
}

// DecodeEmailParam reverses EncodeEmailParam.
func DecodeEmailParam(param string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(param)
	if err != nil {
		return "", fmt.Errorf("invalid email parameter: %w", err)
	}
	return string(b), nil
}
