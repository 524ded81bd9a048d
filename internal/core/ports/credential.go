package ports

import (
	"context"
	"errors"
	"time"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
)

// Store-level sentinels. Services translate them into CredentialError kinds.
var (
	ErrLinkNotFound      = errors.New("link not found")
	ErrLinkNotRedeemable = errors.New("link not redeemable")
	ErrAccountNotFound   = errors.New("account not found")
)

// CredentialRepository commits a new secret and consumes the authorizing link as one unit.
type CredentialRepository interface {
	// CommitSecret redeems linkID under the same condition as LinkRepository.Redeem,
	// additionally requiring that the link is unbound or bound to email, and stores
	// encodedSecret on the active account for email. Either both effects are applied
	// or neither is. email is normalised by the caller.
	CommitSecret(ctx context.Context, linkID, email, encodedSecret string, cutoff time.Time) (*link.Link, error)
}

// SecretEncoder transforms a plaintext password into its at-rest form.
type SecretEncoder interface {
	Encode(plaintext string) (string, error)
}

// CredentialService sets passwords through links and sends the emails carrying them.
type CredentialService interface {
	SetPassword(ctx context.Context, password, email, linkID string) error
	ResetPasswordEmail(ctx context.Context, email string) error
	ResendWelcomeEmail(ctx context.Context, email string) error
}

// CredentialErrorKind classifies failures callers are expected to present.
type CredentialErrorKind int

const (
	ErrKindUnknown CredentialErrorKind = iota
	ErrKindLinkNotFound
	ErrKindLinkInvalid
	ErrKindPasswordPolicy
	ErrKindAccountNotFound
)

func (k CredentialErrorKind) String() string {
	switch k {
	case ErrKindLinkNotFound:
		return "link_not_found"
	case ErrKindLinkInvalid:
		return "link_invalid"
	case ErrKindPasswordPolicy:
		return "password_policy_violation"
	case ErrKindAccountNotFound:
		return "account_not_found"
	default:
		return "unknown"
	}
}

// CredentialError is the typed error returned by the link and credential services.
type CredentialError interface {
	error
	Kind() CredentialErrorKind
	Message() string
	Unwrap() error
}

type credentialError struct {
	kind    CredentialErrorKind
	message string
	cause   error
}

func (e *credentialError) Error() string             { return e.message }
func (e *credentialError) Kind() CredentialErrorKind { return e.kind }
func (e *credentialError) Message() string           { return e.message }
func (e *credentialError) Unwrap() error             { return e.cause }

// NewCredentialError constructs a CredentialError. cause may be nil.
func NewCredentialError(kind CredentialErrorKind, message string, cause error) CredentialError {
	return &credentialError{kind: kind, message: message, cause: cause}
}

// CredentialErrorKindOf returns the kind of err, or ErrKindUnknown if err is not a CredentialError.
func CredentialErrorKindOf(err error) CredentialErrorKind {
	var ce CredentialError
	if errors.As(err, &ce) {
		return ce.Kind()
	}
	return ErrKindUnknown
}

// IsCredentialErrorKind reports whether err carries the given kind.
func IsCredentialErrorKind(err error, kind CredentialErrorKind) bool {
	return CredentialErrorKindOf(err) == kind
}
