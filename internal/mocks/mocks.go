package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/auth"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

// LinkRepositoryMock is a lightweight mock for LinkRepository
type LinkRepositoryMock struct {
	CreateFn  func(ctx context.Context, l *link.Link) error
	GetByIDFn func(ctx context.Context, id string) (*link.Link, error)
	RedeemFn  func(ctx context.Context, id string, cutoff time.Time) (*link.Link, error)
}

func (m *LinkRepositoryMock) Create(ctx context.Context, l *link.Link) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}
func (m *LinkRepositoryMock) GetByID(ctx context.Context, id string) (*link.Link, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("link %s: %w", id, ports.ErrLinkNotFound)
}
func (m *LinkRepositoryMock) Redeem(ctx context.Context, id string, cutoff time.Time) (*link.Link, error) {
	if m.RedeemFn != nil {
		return m.RedeemFn(ctx, id, cutoff)
	}
	return nil, fmt.Errorf("link %s: %w", id, ports.ErrLinkNotRedeemable)
}

// AccountRepositoryMock is a lightweight mock for AccountRepository
type AccountRepositoryMock struct {
	ExistsFn           func(ctx context.Context, email string) (bool, error)
	GetByEmailFn       func(ctx context.Context, email string) (*account.Account, error)
	GetFirstNameFn     func(ctx context.Context, email string) (string, error)
	SetEncodedSecretFn func(ctx context.Context, encodedSecret, email string) error
}

func (m *AccountRepositoryMock) Exists(ctx context.Context, email string) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, email)
	}
	return false, nil
}
func (m *AccountRepositoryMock) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, ports.ErrAccountNotFound
}
func (m *AccountRepositoryMock) GetFirstName(ctx context.Context, email string) (string, error) {
	if m.GetFirstNameFn != nil {
		return m.GetFirstNameFn(ctx, email)
	}
	return "", nil
}
func (m *AccountRepositoryMock) SetEncodedSecret(ctx context.Context, encodedSecret, email string) error {
	if m.SetEncodedSecretFn != nil {
		return m.SetEncodedSecretFn(ctx, encodedSecret, email)
	}
	return nil
}

// CredentialRepositoryMock is a lightweight mock for CredentialRepository
type CredentialRepositoryMock struct {
	CommitSecretFn func(ctx context.Context, linkID, email, encodedSecret string, cutoff time.Time) (*link.Link, error)
}

func (m *CredentialRepositoryMock) CommitSecret(ctx context.Context, linkID, email, encodedSecret string, cutoff time.Time) (*link.Link, error) {
	if m.CommitSecretFn != nil {
		return m.CommitSecretFn(ctx, linkID, email, encodedSecret, cutoff)
	}
	return &link.Link{ID: linkID, HitCount: 1}, nil
}

// SecretEncoderMock returns "enc:" + plaintext unless EncodeFn is set
type SecretEncoderMock struct {
	EncodeFn func(plaintext string) (string, error)
}

func (m *SecretEncoderMock) Encode(plaintext string) (string, error) {
	if m.EncodeFn != nil {
		return m.EncodeFn(plaintext)
	}
	return "enc:" + plaintext, nil
}

// EmailServiceMock is a lightweight mock for EmailService
type EmailServiceMock struct {
	SendPasswordResetEmailFn func(ctx context.Context, email, firstName, linkURL string) error
	SendWelcomeEmailFn       func(ctx context.Context, email, firstName, linkURL string) error
}

func (m *EmailServiceMock) SendPasswordResetEmail(ctx context.Context, email, firstName, linkURL string) error {
	if m.SendPasswordResetEmailFn != nil {
		return m.SendPasswordResetEmailFn(ctx, email, firstName, linkURL)
	}
	return nil
}
func (m *EmailServiceMock) SendWelcomeEmail(ctx context.Context, email, firstName, linkURL string) error {
	if m.SendWelcomeEmailFn != nil {
		return m.SendWelcomeEmailFn(ctx, email, firstName, linkURL)
	}
	return nil
}

// SentMail is one message captured by MailSenderMock
type SentMail struct {
	Receiver string
	Subject  string
	HTML     string
	Text     string
}

// MailSenderMock records every message; SendFn may force an error
type MailSenderMock struct {
	SendFn func(ctx context.Context, receiver, subject, htmlBody, textBody string) error
	Sent   []SentMail
}

func (m *MailSenderMock) Send(ctx context.Context, receiver, subject, htmlBody, textBody string) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, receiver, subject, htmlBody, textBody); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, SentMail{Receiver: receiver, Subject: subject, HTML: htmlBody, Text: textBody})
	return nil
}

// LinkServiceMock is a lightweight mock for LinkService
type LinkServiceMock struct {
	IssueFn         func(ctx context.Context, purpose string) (*link.Link, error)
	IssueForFn      func(ctx context.Context, purpose, email string) (*link.Link, error)
	FetchFn         func(ctx context.Context, id string) (*link.Link, error)
	CheckValidityFn func(ctx context.Context, id string) error
	RedeemFn        func(ctx context.Context, id string) (*link.Link, error)
	CutoffFn        func() time.Time
}

func (m *LinkServiceMock) Issue(ctx context.Context, purpose string) (*link.Link, error) {
	if m.IssueFn != nil {
		return m.IssueFn(ctx, purpose)
	}
	return &link.Link{ID: "link-1", GenerationTime: time.Now().UTC(), Purpose: purpose}, nil
}

// IssueFor falls back to Issue and binds the result to email
func (m *LinkServiceMock) IssueFor(ctx context.Context, purpose, email string) (*link.Link, error) {
	if m.IssueForFn != nil {
		return m.IssueForFn(ctx, purpose, email)
	}
	l, err := m.Issue(ctx, purpose)
	if err != nil || email == "" {
		return l, err
	}
	l.Email = &email
	return l, nil
}

func (m *LinkServiceMock) Fetch(ctx context.Context, id string) (*link.Link, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx, id)
	}
	return nil, ports.NewCredentialError(ports.ErrKindLinkNotFound, "link not found", ports.ErrLinkNotFound)
}
func (m *LinkServiceMock) CheckValidity(ctx context.Context, id string) error {
	if m.CheckValidityFn != nil {
		return m.CheckValidityFn(ctx, id)
	}
	return nil
}
func (m *LinkServiceMock) Redeem(ctx context.Context, id string) (*link.Link, error) {
	if m.RedeemFn != nil {
		return m.RedeemFn(ctx, id)
	}
	return &link.Link{ID: id, HitCount: 1}, nil
}
func (m *LinkServiceMock) Cutoff() time.Time {
	if m.CutoffFn != nil {
		return m.CutoffFn()
	}
	return time.Now().Add(-time.Duration(link.DefaultExpiryMinutes+1) * time.Minute)
}

// CredentialServiceMock is a lightweight mock for CredentialService
type CredentialServiceMock struct {
	SetPasswordFn        func(ctx context.Context, password, email, linkID string) error
	ResetPasswordEmailFn func(ctx context.Context, email string) error
	ResendWelcomeEmailFn func(ctx context.Context, email string) error
}

func (m *CredentialServiceMock) SetPassword(ctx context.Context, password, email, linkID string) error {
	if m.SetPasswordFn != nil {
		return m.SetPasswordFn(ctx, password, email, linkID)
	}
	return nil
}
func (m *CredentialServiceMock) ResetPasswordEmail(ctx context.Context, email string) error {
	if m.ResetPasswordEmailFn != nil {
		return m.ResetPasswordEmailFn(ctx, email)
	}
	return nil
}
func (m *CredentialServiceMock) ResendWelcomeEmail(ctx context.Context, email string) error {
	if m.ResendWelcomeEmailFn != nil {
		return m.ResendWelcomeEmailFn(ctx, email)
	}
	return nil
}

// RateLimitRepositoryMock is a lightweight mock for RateLimitRepository
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, key, window)
	}
	return 1, time.Now().Truncate(window), nil
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, key string) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, key string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, key)
	}
	return true, 1, 1, time.Now(), nil
}

// TokenVerifierMock is a lightweight mock for TokenVerifier
type TokenVerifierMock struct {
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

func (m *TokenVerifierMock) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return nil, fmt.Errorf("invalid token")
}

// HealthCheckerMock reports Err from Check; it is required unless Optional is set
type HealthCheckerMock struct {
	NameValue string
	Optional  bool
	Err       error
}

func (m *HealthCheckerMock) Name() string                    { return m.NameValue }
func (m *HealthCheckerMock) Required() bool                  { return !m.Optional }
func (m *HealthCheckerMock) Check(ctx context.Context) error { return m.Err }
