package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
	logger    *logrus.Logger
}

var _ ports.MailSender = (*SendGridSender)(nil)

func NewSendGridSender(config *EmailConfig, logger *logrus.Logger) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(config.SendGridAPIKey),
		fromName:  config.FromName,
		fromEmail: config.FromEmail,
		logger:    logger,
	}
}

// Send sends a single message with html and plain-text bodies
func (s *SendGridSender) Send(ctx context.Context, receiver, subject, htmlBody, textBody string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", receiver)
	message := mail.NewSingleEmail(from, subject, to, textBody, htmlBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"to": receiver, "subject": subject}).WithError(err).Error("Failed to send email")
		}
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 300 {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"to": receiver, "status_code": response.StatusCode}).Error("SendGrid rejected email")
		}
		return fmt.Errorf("failed to send email: sendgrid status %d", response.StatusCode)
	}
	return nil
}
