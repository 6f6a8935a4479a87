package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"top100/internal/config"
)

// Sender delivers one message to a set of recipients.
type Sender interface {
	Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error
}

// Service handles sending email notifications.
type Service struct {
	sender  Sender
	enabled bool
	logger  *slog.Logger
}

// NewService creates a new email service using the configured provider.
func NewService(cfg *config.Config) *Service {
	s := &Service{
		enabled: cfg.IsEmailEnabled(),
		logger:  slog.Default(),
	}

	if !s.enabled {
		s.logger.Info("email notifications disabled (no provider configured)")
		return s
	}

	switch cfg.EmailProvider {
	case "sendgrid":
		s.sender = NewSendGridSender(cfg.SendGridAPIKey, cfg.SMTPFrom, cfg.SMTPFromName)
		s.logger.Info("email notifications enabled", "provider", "sendgrid")
	default:
		s.sender = NewSMTPSender(cfg)
		s.logger.Info("email notifications enabled", "provider", "smtp", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	}
	return s
}

// NewServiceWithSender creates an enabled service around sender.
func NewServiceWithSender(sender Sender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sender: sender, enabled: sender != nil, logger: logger}
}

// IsEnabled returns true if email is enabled.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// Send sends an email to the specified recipients.
func (s *Service) Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error {
	if !s.enabled || len(to) == 0 {
		return nil
	}
	return s.sender.Send(ctx, to, subject, htmlBody, textBody)
}

// SendAsync sends an email asynchronously (fire and forget with logging).
func (s *Service) SendAsync(to []string, subject, htmlBody, textBody string) {
	if !s.enabled || len(to) == 0 {
		return
	}

	go func() {
		if err := s.Send(context.Background(), to, subject, htmlBody, textBody); err != nil {
			s.logger.Error("failed to send email", "to", to, "subject", subject, "error", err)
		} else {
			s.logger.Info("email sent", "to", to, "subject", subject)
		}
	}()
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	tlsMode  string
}

// NewSMTPSender creates an SMTP sender from configuration.
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		tlsMode:  cfg.SMTPTLS,
	}
}

// FromHeader returns the From header value.
func (s *SMTPSender) FromHeader() string {
	if s.fromName != "" {
		return fmt.Sprintf("%s <%s>", s.fromName, s.from)
	}
	return s.from
}

// Send delivers the message using the configured TLS mode.
func (s *SMTPSender) Send(_ context.Context, to []string, subject, htmlBody, textBody string) error {
	msg := BuildMessage(s.FromHeader(), to, subject, htmlBody, textBody)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" && s.password != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	switch s.tlsMode {
	case "tls":
		return s.sendWithTLS(addr, auth, to, msg)
	case "none":
		return smtp.SendMail(addr, auth, s.from, to, []byte(msg))
	default: // "starttls"
		return s.sendWithStartTLS(addr, auth, to, msg)
	}
}

const mimeBoundary = "Top100Boundary7f3a9c2e"

// BuildMessage renders a MIME message. Both bodies produce multipart/alternative.
func BuildMessage(from string, to []string, subject, htmlBody, textBody string) string {
	var msg strings.Builder

	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case htmlBody != "" && textBody != "":
		msg.WriteString("Content-Type: multipart/alternative; boundary=\"" + mimeBoundary + "\"\r\n\r\n")
		msg.WriteString("--" + mimeBoundary + "\r\n")
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(textBody + "\r\n")
		msg.WriteString("--" + mimeBoundary + "\r\n")
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(htmlBody + "\r\n")
		msg.WriteString("--" + mimeBoundary + "--\r\n")
	case htmlBody != "":
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(htmlBody + "\r\n")
	default:
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(textBody + "\r\n")
	}

	return msg.String()
}

// sendWithTLS sends email using implicit TLS (port 465).
func (s *SMTPSender) sendWithTLS(addr string, auth smtp.Auth, to []string, msg string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("SMTP client failed: %w", err)
	}
	defer client.Close()

	return s.deliver(client, auth, to, msg)
}

// sendWithStartTLS sends email using STARTTLS (port 587).
func (s *SMTPSender) sendWithStartTLS(addr string, auth smtp.Auth, to []string, msg string) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("SMTP dial failed: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("STARTTLS failed: %w", err)
	}

	return s.deliver(client, auth, to, msg)
}

func (s *SMTPSender) deliver(client *smtp.Client, auth smtp.Auth, to []string, msg string) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("SMTP MAIL failed: %w", err)
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}

	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("SMTP write failed: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("SMTP close failed: %w", err)
	}

	return client.Quit()
}

// SendGridSender sends mail through the SendGrid v3 API.
type SendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridSender creates a SendGrid sender.
func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     fromEmail,
		fromName: fromName,
	}
}

// Message builds the SendGrid payload for one message.
func (s *SendGridSender) Message(to []string, subject, htmlBody, textBody string) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.from))
	message.Subject = subject

	p := mail.NewPersonalization()
	for _, addr := range to {
		p.AddTos(mail.NewEmail("", addr))
	}
	message.AddPersonalizations(p)

	if textBody != "" {
		message.AddContent(mail.NewContent("text/plain", textBody))
	}
	if htmlBody != "" {
		message.AddContent(mail.NewContent("text/html", htmlBody))
	}
	return message
}

// Send delivers the message.
func (s *SendGridSender) Send(ctx context.Context, to []string, subject, htmlBody, textBody string) error {
	response, err := s.client.SendWithContext(ctx, s.Message(to, subject, htmlBody, textBody))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
