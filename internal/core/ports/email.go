package ports

import (
	"context"
)

// MailSender delivers a fully rendered message.
type MailSender interface {
	Send(ctx context.Context, receiver, subject, htmlBody, textBody string) error
}

// EmailService picks the template for each link email and hands it to a MailSender
type EmailService interface {
	SendPasswordResetEmail(ctx context.Context, email, firstName, linkURL string) error
	SendWelcomeEmail(ctx context.Context, email, firstName, linkURL string) error
}
