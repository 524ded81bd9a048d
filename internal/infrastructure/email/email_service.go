package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/perfmgmt-saas/internal/core/ports"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	templatePasswordReset = "password_reset"
	templateWelcome       = "welcome"
)

// EmailConfig holds email service configuration
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	CompanyName    string
}

// EmailService renders link emails and hands them to a MailSender
type EmailService struct {
	config *EmailConfig
	logger *logrus.Logger
	sender ports.MailSender
	html   map[string]*htmltemplate.Template
	text   map[string]*texttemplate.Template
}

var _ ports.EmailService = (*EmailService)(nil)

// NewEmailService creates a new email service instance
func NewEmailService(config *EmailConfig, sender ports.MailSender, logger *logrus.Logger) (*EmailService, error) {
	svc := &EmailService{
		config: config,
		logger: logger,
		sender: sender,
		html:   make(map[string]*htmltemplate.Template),
		text:   make(map[string]*texttemplate.Template),
	}
	if err := svc.loadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}
	return svc, nil
}

// loadTemplates parses the html and plain-text variant of every template
func (e *EmailService) loadTemplates() error {
	for _, name := range []string{templatePasswordReset, templateWelcome} {
		h, err := htmltemplate.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return fmt.Errorf("failed to parse template %s.html: %w", name, err)
		}
		t, err := texttemplate.ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return fmt.Errorf("failed to parse template %s.txt: %w", name, err)
		}
		e.html[name] = h
		e.text[name] = t
	}
	return nil
}

// LinkEmailData holds the data for link email templates
type LinkEmailData struct {
	CompanyName string
	FirstName   string
	LinkURL     string
}

func (e *EmailService) render(name string, data LinkEmailData) (string, string, error) {
	h, ok := e.html[name]
	if !ok {
		return "", "", fmt.Errorf("template %s not found", name)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := h.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	if err := e.text[name].Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

func (e *EmailService) send(ctx context.Context, name, receiver, subject, firstName, linkURL string) error {
	htmlBody, textBody, err := e.render(name, LinkEmailData{
		CompanyName: e.config.CompanyName,
		FirstName:   firstName,
		LinkURL:     linkURL,
	})
	if err != nil {
		return fmt.Errorf("failed to render %s email template: %w", name, err)
	}

	if err := e.sender.Send(ctx, receiver, subject, htmlBody, textBody); err != nil {
		return err
	}

	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{"to": receiver, "template": name}).Info("link email sent")
	}
	return nil
}

// SendPasswordResetEmail sends the password reset link
func (e *EmailService) SendPasswordResetEmail(ctx context.Context, email, firstName, linkURL string) error {
	subject := fmt.Sprintf("Reset Your Password - %s", e.config.CompanyName)
	return e.send(ctx, templatePasswordReset, email, subject, firstName, linkURL)
}

// SendWelcomeEmail sends the welcome email carrying a set-password link
func (e *EmailService) SendWelcomeEmail(ctx context.Context, email, firstName, linkURL string) error {
	subject := fmt.Sprintf("Welcome to %s", e.config.CompanyName)
	return e.send(ctx, templateWelcome, email, subject, firstName, linkURL)
}
