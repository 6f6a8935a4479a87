package email

import (
	"context"
	"strings"
	"testing"

	"top100/internal/config"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantEnabled bool
	}{
		{
			name: "smtp enabled when host and sender configured",
			cfg: &config.Config{
				EmailProvider: "smtp",
				SMTPHost:      "smtp.example.com",
				SMTPPort:      587,
				SMTPFrom:      "noreply@example.com",
			},
			wantEnabled: true,
		},
		{
			name: "smtp disabled when SMTPHost is empty",
			cfg: &config.Config{
				EmailProvider: "smtp",
				SMTPPort:      587,
				SMTPFrom:      "noreply@example.com",
			},
			wantEnabled: false,
		},
		{
			name: "sendgrid enabled with api key",
			cfg: &config.Config{
				EmailProvider:  "sendgrid",
				SendGridAPIKey: "SG.test",
				SMTPFrom:       "noreply@example.com",
			},
			wantEnabled: true,
		},
		{
			name: "sendgrid disabled without api key",
			cfg: &config.Config{
				EmailProvider: "sendgrid",
				SMTPFrom:      "noreply@example.com",
			},
			wantEnabled: false,
		},
		{
			name:        "disabled with empty config",
			cfg:         &config.Config{},
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.cfg)
			if got := svc.IsEnabled(); got != tt.wantEnabled {
				t.Errorf("IsEnabled() = %v, want %v", got, tt.wantEnabled)
			}
		})
	}
}

func TestNewService_ProviderSelection(t *testing.T) {
	smtpSvc := NewService(&config.Config{EmailProvider: "smtp", SMTPHost: "smtp.example.com", SMTPFrom: "a@example.com"})
	if _, ok := smtpSvc.sender.(*SMTPSender); !ok {
		t.Errorf("sender = %T, want *SMTPSender", smtpSvc.sender)
	}

	sgSvc := NewService(&config.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.x", SMTPFrom: "a@example.com"})
	if _, ok := sgSvc.sender.(*SendGridSender); !ok {
		t.Errorf("sender = %T, want *SendGridSender", sgSvc.sender)
	}
}

func TestService_SendDisabled(t *testing.T) {
	svc := NewService(&config.Config{})
	if err := svc.Send(context.Background(), []string{"a@example.com"}, "s", "<p>h</p>", "t"); err != nil {
		t.Errorf("Send() on disabled service error = %v", err)
	}
	svc.SendAsync([]string{"a@example.com"}, "s", "<p>h</p>", "t")
}

func TestService_SendNoRecipients(t *testing.T) {
	sender := newRecordingSender()
	svc := NewServiceWithSender(sender, nil)

	if err := svc.Send(context.Background(), nil, "s", "h", "t"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if n := len(sender.sent); n != 0 {
		t.Errorf("sender received %d messages, want 0", n)
	}
}

func TestSMTPSender_FromHeader(t *testing.T) {
	tests := []struct {
		name     string
		fromName string
		want     string
	}{
		{"with display name", "Top100", "Top100 <noreply@example.com>"},
		{"address only", "", "noreply@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSMTPSender(&config.Config{SMTPFrom: "noreply@example.com", SMTPFromName: tt.fromName})
			if got := s.FromHeader(); got != tt.want {
				t.Errorf("FromHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		text     string
		contains []string
		absent   []string
	}{
		{
			name:     "multipart when both bodies",
			html:     "<p>hello</p>",
			text:     "hello",
			contains: []string{"multipart/alternative", "text/plain", "text/html", "<p>hello</p>", "--" + mimeBoundary + "--"},
		},
		{
			name:     "html only",
			html:     "<p>hello</p>",
			contains: []string{"Content-Type: text/html"},
			absent:   []string{"multipart"},
		},
		{
			name:     "text only",
			text:     "hello",
			contains: []string{"Content-Type: text/plain"},
			absent:   []string{"multipart", "text/html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := BuildMessage("Top100 <noreply@example.com>", []string{"a@example.com", "b@example.com"}, "Subject line", tt.html, tt.text)

			for _, want := range append([]string{"From: Top100 <noreply@example.com>", "To: a@example.com, b@example.com", "Subject: Subject line", "MIME-Version: 1.0"}, tt.contains...) {
				if !strings.Contains(msg, want) {
					t.Errorf("message missing %q", want)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(msg, bad) {
					t.Errorf("message unexpectedly contains %q", bad)
				}
			}
		})
	}
}

func TestSendGridSender_Message(t *testing.T) {
	s := NewSendGridSender("SG.test", "noreply@example.com", "Top100")
	msg := s.Message([]string{"a@example.com", "b@example.com"}, "Hello", "<p>hi</p>", "hi")

	if msg.From == nil || msg.From.Address != "noreply@example.com" || msg.From.Name != "Top100" {
		t.Errorf("From = %+v", msg.From)
	}
	if msg.Subject != "Hello" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if len(msg.Personalizations) != 1 || len(msg.Personalizations[0].To) != 2 {
		t.Fatalf("expected one personalization with two recipients, got %+v", msg.Personalizations)
	}
	if len(msg.Content) != 2 || msg.Content[0].Type != "text/plain" || msg.Content[1].Type != "text/html" {
		t.Errorf("Content = %+v, want text/plain then text/html", msg.Content)
	}
}
