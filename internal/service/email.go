package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"propdesk-backend/internal/domain"
	"propdesk-backend/internal/logger"
)

type emailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewEmailService sends through SendGrid. With no API key configured, mail is
// written to the log instead of being sent.
func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	if apiKey == "" {
		logger.Warn("SendGrid API key not set, emails will only be logged")
		return &logEmailService{}
	}
	return &emailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) SendVerificationEmail(ctx context.Context, to, name, link string) error {
	subject := "Verify your PropDesk email address"
	plain := fmt.Sprintf("Hello %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nThe link expires in 24 hours.\n\nThe PropDesk Team", name, link)
	htmlBody := fmt.Sprintf(`<p>Hello %s,</p><p>Please confirm your email address:</p><p><a href="%s">Verify email</a></p><p>The link expires in 24 hours.</p><p>The PropDesk Team</p>`,
		html.EscapeString(name), html.EscapeString(link))
	return s.send(ctx, to, name, subject, plain, htmlBody)
}

func (s *emailService) SendNotificationDigest(ctx context.Context, to, name string, unread []domain.Notification) error {
	if len(unread) == 0 {
		return nil
	}
	subject := fmt.Sprintf("You have %d unread PropDesk notification%s", len(unread), pluralS(len(unread)))
	plain, htmlBody := renderDigest(name, unread)
	return s.send(ctx, to, name, subject, plain, htmlBody)
}

func (s *emailService) send(ctx context.Context, to, toName, subject, plain, htmlBody string) error {
	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, plain, htmlBody)

	resp, err := s.client.SendWithContext(ctx, message)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func renderDigest(name string, unread []domain.Notification) (string, string) {
	var plain, body strings.Builder
	fmt.Fprintf(&plain, "Hello %s,\n\nHere is what you missed:\n\n", name)
	fmt.Fprintf(&body, "<p>Hello %s,</p><p>Here is what you missed:</p><ul>", html.EscapeString(name))
	for _, n := range unread {
		fmt.Fprintf(&plain, "- %s: %s\n", n.Title, n.Message)
		fmt.Fprintf(&body, "<li><strong>%s</strong>: %s</li>", html.EscapeString(n.Title), html.EscapeString(n.Message))
	}
	plain.WriteString("\nThe PropDesk Team")
	body.WriteString("</ul><p>The PropDesk Team</p>")
	return plain.String(), body.String()
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type logEmailService struct{}

func (logEmailService) SendVerificationEmail(ctx context.Context, to, name, link string) error {
	logger.Info("Verification email (not sent)", "to", to, "link", link)
	return nil
}

func (logEmailService) SendNotificationDigest(ctx context.Context, to, name string, unread []domain.Notification) error {
	logger.Info("Notification digest (not sent)", "to", to, "unread", len(unread))
	return nil
}
