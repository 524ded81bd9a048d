package services_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/perfmgmt-saas/internal/application/services"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/account"
	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/link"
	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/memstore"
	tmocks "github.com/avatarctic/perfmgmt-saas/internal/mocks"
	"github.com/avatarctic/perfmgmt-saas/internal/utils"
)

const testBaseURL = "https://app.example.com/"

type credentialFixture struct {
	store  *memstore.Store
	clock  *fakeClock
	links  *impl.LinkService
	emails *tmocks.EmailServiceMock
	svc    *impl.CredentialService
}

func newCredentialFixture(encoder ports.SecretEncoder) *credentialFixture {
	store := memstore.New()
	store.PutAccount(account.Account{Email: "user@example.com", FirstName: "Ada", IsActive: true})
	store.PutAccount(account.Account{Email: "former@example.com", FirstName: "Bob", IsActive: false})

	clock := newFakeClock()
	links := impl.NewLinkService(store, &impl.LinkServiceConfig{Now: clock.Now}, nil)
	emails := &tmocks.EmailServiceMock{}
	svc := impl.NewCredentialService(links, store, store, encoder, emails, testBaseURL, nil)
	return &credentialFixture{store: store, clock: clock, links: links, emails: emails, svc: svc}
}

func TestSetPassword_EndToEnd(t *testing.T) {
	ctx := context.Background()
	encoder := utils.NewArgon2idEncoder()
	f := newCredentialFixture(encoder)

	l, err := f.links.Issue(ctx, link.PurposeSetPassword)
	require.NoError(t, err)

	require.NoError(t, f.svc.SetPassword(ctx, "Valid1!ab", "user@example.com", l.ID))

	acct, err := f.store.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	ok, err := encoder.Verify("Valid1!ab", acct.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	err = f.links.CheckValidity(ctx, l.ID)
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindLinkInvalid))
	assert.EqualError(t, err, "link already used for Set Password")

	err = f.svc.SetPassword(ctx, "Other1!ab", "user@example.com", l.ID)
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindLinkInvalid))
	assert.EqualError(t, err, "link already used for Set Password")
}

func TestSetPassword_LegacySchemeStoresDeterministicText(t *testing.T) {
	ctx := context.Background()
	encoder := utils.NewLegacyCipherEncoder()
	f := newCredentialFixture(encoder)

	l, err := f.links.Issue(ctx, link.PurposeSetPassword)
	require.NoError(t, err)
	require.NoError(t, f.svc.SetPassword(ctx, "Valid1!ab", "user@example.com", l.ID))

	want, err := encoder.Encode("Valid1!ab")
	require.NoError(t, err)
	acct, err := f.store.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, want, acct.PasswordHash)
}

func TestSetPassword_PolicyViolationKeepsLink(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})

	l, err := f.links.Issue(ctx, link.PurposeSetPassword)
	require.NoError(t, err)

	err = f.svc.SetPassword(ctx, "alllowercase1!", "user@example.com", l.ID)
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindPasswordPolicy))
	assert.EqualError(t, err, "password should have at least 1 capital letter")
	require.ErrorIs(t, err, utils.ErrPasswordNoUppercase)

	require.NoError(t, f.links.CheckValidity(ctx, l.ID))
}

func TestSetPassword_LinkCheckedBeforePolicy(t *testing.T) {
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})

	err := f.svc.SetPassword(context.Background(), "short", "user@example.com", "missing")
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindLinkNotFound))
}

func TestSetPassword_ExpiredLink(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})

	l, err := f.links.Issue(ctx, link.PurposeResetPassword)
	require.NoError(t, err)
	f.clock.Advance(25 * time.Hour)

	err = f.svc.SetPassword(ctx, "Valid1!ab", "user@example.com", l.ID)
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindLinkInvalid))
	assert.EqualError(t, err, link.ExpiredMessage)

	acct, err := f.store.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Empty(t, acct.PasswordHash)
}

func TestSetPassword_InactiveAccountLeavesLinkUnused(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})

	l, err := f.links.Issue(ctx, link.PurposeSetPassword)
	require.NoError(t, err)

	err = f.svc.SetPassword(ctx, "Valid1!ab", "former@example.com", l.ID)
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindAccountNotFound))

	require.NoError(t, f.links.CheckValidity(ctx, l.ID))
}

func TestSetPassword_EncoderFailure(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{EncodeFn: func(string) (string, error) {
		return "", errors.New("entropy exhausted")
	}})

	l, err := f.links.Issue(ctx, link.PurposeSetPassword)
	require.NoError(t, err)

	err = f.svc.SetPassword(ctx, "Valid1!ab", "user@example.com", l.ID)
	require.Error(t, err)
	assert.Equal(t, ports.ErrKindUnknown, ports.CredentialErrorKindOf(err))
	require.NoError(t, f.links.CheckValidity(ctx, l.ID))
}

func TestSetPassword_LostRaceReportsClassifiedReason(t *testing.T) {
	ctx := context.Background()
	checks := 0
	links := &tmocks.LinkServiceMock{CheckValidityFn: func(ctx context.Context, id string) error {
		checks++
		if checks == 1 {
			return nil
		}
		return ports.NewCredentialError(ports.ErrKindLinkInvalid, link.UsedMessage(link.PurposeWelcome), nil)
	}}
	creds := &tmocks.CredentialRepositoryMock{CommitSecretFn: func(ctx context.Context, linkID, email, encodedSecret string, cutoff time.Time) (*link.Link, error) {
		return nil, ports.ErrLinkNotRedeemable
	}}
	svc := impl.NewCredentialService(links, &tmocks.AccountRepositoryMock{}, creds, &tmocks.SecretEncoderMock{}, &tmocks.EmailServiceMock{}, testBaseURL, nil)

	err := svc.SetPassword(ctx, "Valid1!ab", "user@example.com", "l1")
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindLinkInvalid))
	assert.EqualError(t, err, "link already used for welcome")
	assert.Equal(t, 2, checks)
}

func TestSetPassword_StoreFailureIsWrapped(t *testing.T) {
	creds := &tmocks.CredentialRepositoryMock{CommitSecretFn: func(ctx context.Context, linkID, email, encodedSecret string, cutoff time.Time) (*link.Link, error) {
		return nil, errors.New("connection reset")
	}}
	svc := impl.NewCredentialService(&tmocks.LinkServiceMock{}, &tmocks.AccountRepositoryMock{}, creds, &tmocks.SecretEncoderMock{}, &tmocks.EmailServiceMock{}, testBaseURL, nil)

	err := svc.SetPassword(context.Background(), "Valid1!ab", "user@example.com", "l1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit password")
	assert.Equal(t, ports.ErrKindUnknown, ports.CredentialErrorKindOf(err))
}

func TestSetPassword_ConcurrentCommitsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})

	l, err := f.links.Issue(ctx, link.PurposeSetPassword)
	require.NoError(t, err)

	const attempts = 16
	var wins, rejected int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := f.svc.SetPassword(ctx, "Valid1!ab", "user@example.com", l.ID)
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case ports.IsCredentialErrorKind(err, ports.ErrKindLinkInvalid):
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(attempts-1), rejected)
	stored, err := f.links.Fetch(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.HitCount)
}

func TestResetPasswordEmail_SendsUsableLink(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})

	var gotEmail, gotName, gotURL string
	f.emails.SendPasswordResetEmailFn = func(ctx context.Context, email, firstName, linkURL string) error {
		gotEmail, gotName, gotURL = email, firstName, linkURL
		return nil
	}

	require.NoError(t, f.svc.ResetPasswordEmail(ctx, "user@example.com"))
	assert.Equal(t, "user@example.com", gotEmail)
	assert.Equal(t, "Ada", gotName)

	u, err := url.Parse(gotURL)
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", u.Host)
	assert.Equal(t, "/set-password", u.Path)

	decoded, err := impl.DecodeEmailParam(u.Query().Get("email"))
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", decoded)

	issued, err := f.links.Fetch(ctx, u.Query().Get("link"))
	require.NoError(t, err)
	assert.Equal(t, link.PurposeResetPassword, issued.Purpose)
	assert.Equal(t, 0, issued.HitCount)

	require.NoError(t, f.svc.SetPassword(ctx, "Valid1!ab", decoded, issued.ID))
	assert.EqualError(t, f.links.CheckValidity(ctx, issued.ID), "link already used for reset")
}

func TestResetPasswordEmail_LinkOnlySetsRequesterPassword(t *testing.T) {
	ctx := context.Background()
	encoder := utils.NewArgon2idEncoder()
	f := newCredentialFixture(encoder)
	f.store.PutAccount(account.Account{Email: "attacker@example.com", FirstName: "Eve", IsActive: true})

	var gotURL string
	f.emails.SendPasswordResetEmailFn = func(ctx context.Context, email, firstName, linkURL string) error {
		gotURL = linkURL
		return nil
	}
	require.NoError(t, f.svc.ResetPasswordEmail(ctx, "attacker@example.com"))
	u, err := url.Parse(gotURL)
	require.NoError(t, err)
	linkID := u.Query().Get("link")

	err = f.svc.SetPassword(ctx, "Pwned1!xx", "user@example.com", linkID)
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindLinkInvalid))
	assert.EqualError(t, err, link.MismatchMessage)

	victim, err := f.store.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Empty(t, victim.PasswordHash)
	require.NoError(t, f.links.CheckValidity(ctx, linkID), "a rejected link stays usable by its owner")

	require.NoError(t, f.svc.SetPassword(ctx, "Mine1!xyz", "attacker@example.com", linkID))
	owner, err := f.store.GetByEmail(ctx, "attacker@example.com")
	require.NoError(t, err)
	ok, err := encoder.Verify("Mine1!xyz", owner.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLinkEmails_EmailCaseDoesNotMatter(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})

	var gotURL string
	f.emails.SendWelcomeEmailFn = func(ctx context.Context, email, firstName, linkURL string) error {
		gotURL = linkURL
		return nil
	}
	require.NoError(t, f.svc.ResendWelcomeEmail(ctx, " User@Example.com"))
	u, err := url.Parse(gotURL)
	require.NoError(t, err)
	decoded, err := impl.DecodeEmailParam(u.Query().Get("email"))
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", decoded)

	issued, err := f.links.Fetch(ctx, u.Query().Get("link"))
	require.NoError(t, err)
	require.NotNil(t, issued.Email)
	assert.Equal(t, "user@example.com", *issued.Email)

	require.NoError(t, f.svc.SetPassword(ctx, "Valid1!ab", "USER@example.com ", issued.ID))
}

func TestSetPassword_BoundAdminLink(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})
	f.store.PutAccount(account.Account{Email: "other@example.com", IsActive: true})

	l, err := f.links.IssueFor(ctx, link.PurposeSetPassword, "user@example.com")
	require.NoError(t, err)

	err = f.svc.SetPassword(ctx, "Valid1!ab", "other@example.com", l.ID)
	assert.EqualError(t, err, link.MismatchMessage)
	require.NoError(t, f.svc.SetPassword(ctx, "Valid1!ab", "user@example.com", l.ID))
}

func TestResendWelcomeEmail_UsesWelcomePurpose(t *testing.T) {
	ctx := context.Background()
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})

	var gotURL string
	f.emails.SendWelcomeEmailFn = func(ctx context.Context, email, firstName, linkURL string) error {
		gotURL = linkURL
		return nil
	}
	f.emails.SendPasswordResetEmailFn = func(ctx context.Context, email, firstName, linkURL string) error {
		t.Fatal("reset template must not be used for welcome")
		return nil
	}

	require.NoError(t, f.svc.ResendWelcomeEmail(ctx, "user@example.com"))

	u, err := url.Parse(gotURL)
	require.NoError(t, err)
	issued, err := f.links.Fetch(ctx, u.Query().Get("link"))
	require.NoError(t, err)
	assert.Equal(t, link.PurposeWelcome, issued.Purpose)
}

func TestLinkEmails_UnknownAccount(t *testing.T) {
	ctx := context.Background()
	issued := 0
	links := &tmocks.LinkServiceMock{IssueFn: func(ctx context.Context, purpose string) (*link.Link, error) {
		issued++
		return &link.Link{ID: "x", Purpose: purpose}, nil
	}}
	accounts := &tmocks.AccountRepositoryMock{ExistsFn: func(ctx context.Context, email string) (bool, error) { return false, nil }}
	svc := impl.NewCredentialService(links, accounts, &tmocks.CredentialRepositoryMock{}, &tmocks.SecretEncoderMock{}, &tmocks.EmailServiceMock{}, testBaseURL, nil)

	err := svc.ResetPasswordEmail(ctx, "nobody@example.com")
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindAccountNotFound))
	err = svc.ResendWelcomeEmail(ctx, "nobody@example.com")
	require.True(t, ports.IsCredentialErrorKind(err, ports.ErrKindAccountNotFound))
	assert.Equal(t, 0, issued)
}

func TestLinkEmails_SendFailurePropagates(t *testing.T) {
	f := newCredentialFixture(&tmocks.SecretEncoderMock{})
	f.emails.SendPasswordResetEmailFn = func(ctx context.Context, email, firstName, linkURL string) error {
		return errors.New("sendgrid: 503")
	}

	err := f.svc.ResetPasswordEmail(context.Background(), "user@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send password reset email")
}

func TestBuildLinkURL(t *testing.T) {
	got := impl.BuildLinkURL("https://app.example.com/", "abc", "a+b@example.com")
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "abc", u.Query().Get("link"))

	email, err := impl.DecodeEmailParam(u.Query().Get("email"))
	require.NoError(t, err)
	assert.Equal(t, "a+b@example.com", email)

	_, err = impl.DecodeEmailParam("***")
	require.Error(t, err)
}
