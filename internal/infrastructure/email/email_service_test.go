package email_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/email"
	tmocks "github.com/avatarctic/perfmgmt-saas/internal/mocks"
)

func newTestEmailService(t *testing.T, sender *tmocks.MailSenderMock) *email.EmailService {
	t.Helper()
	svc, err := email.NewEmailService(&email.EmailConfig{CompanyName: "Acme Reviews"}, sender, nil)
	require.NoError(t, err)
	return svc
}

func TestEmailService_PasswordResetTemplate(t *testing.T) {
	sender := &tmocks.MailSenderMock{}
	svc := newTestEmailService(t, sender)

	linkURL := "https://app.example.com/set-password?email=dXNlcg&link=abc"
	require.NoError(t, svc.SendPasswordResetEmail(context.Background(), "user@example.com", "Ada", linkURL))

	require.Len(t, sender.Sent, 1)
	msg := sender.Sent[0]
	assert.Equal(t, "user@example.com", msg.Receiver)
	assert.Equal(t, "Reset Your Password - Acme Reviews", msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Ada,")
	// html/template escapes & inside attributes
	assert.Contains(t, msg.HTML, "set-password?email=dXNlcg&amp;link=abc")
	assert.Contains(t, msg.Text, linkURL)
	assert.Contains(t, msg.Text, "reset your Acme Reviews password")
}

func TestEmailService_WelcomeTemplate(t *testing.T) {
	sender := &tmocks.MailSenderMock{}
	svc := newTestEmailService(t, sender)

	require.NoError(t, svc.SendWelcomeEmail(context.Background(), "new@example.com", "Grace", "https://app.example.com/set-password?link=xyz"))

	require.Len(t, sender.Sent, 1)
	assert.Equal(t, "Welcome to Acme Reviews", sender.Sent[0].Subject)
	assert.Contains(t, sender.Sent[0].HTML, "Welcome to Acme Reviews")
	assert.Contains(t, sender.Sent[0].Text, "Hi Grace,")
}

func TestEmailService_EscapesNames(t *testing.T) {
	sender := &tmocks.MailSenderMock{}
	svc := newTestEmailService(t, sender)

	require.NoError(t, svc.SendWelcomeEmail(context.Background(), "x@example.com", "<script>", "https://app.example.com"))
	assert.NotContains(t, sender.Sent[0].HTML, "<script>")
	assert.Contains(t, sender.Sent[0].HTML, "&lt;script&gt;")
}

func TestEmailService_SenderError(t *testing.T) {
	sender := &tmocks.MailSenderMock{SendFn: func(ctx context.Context, receiver, subject, htmlBody, textBody string) error {
		return errors.New("boom")
	}}
	svc := newTestEmailService(t, sender)

	err := svc.SendPasswordResetEmail(context.Background(), "user@example.com", "Ada", "https://app.example.com")
	require.Error(t, err)
	assert.Empty(t, sender.Sent)
}
