package email

import (
	"context"
	"log/slog"
	"strings"

	"top100/internal/config"
	"top100/internal/models"
)

// AdminEmailGetter is an interface for getting admin emails.
type AdminEmailGetter interface {
	GetAdminEmails(ctx context.Context) ([]string, error)
}

// Notifier sends email notifications for feature request events.
type Notifier struct {
	service   *Service
	templates *Templates
	cfg       *config.Config
	db        AdminEmailGetter
	logger    *slog.Logger
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg *config.Config, service *Service, db AdminEmailGetter, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		service:   service,
		templates: NewTemplates(cfg),
		cfg:       cfg,
		db:        db,
		logger:    logger,
	}
}

// AdminRecipients returns the configured notify addresses plus admin users,
// deduplicated case-insensitively.
func (n *Notifier) AdminRecipients(ctx context.Context) []string {
	seen := map[string]bool{}
	var out []string
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, addr)
	}

	for _, addr := range strings.Split(n.cfg.NotifyEmails, ",") {
		add(addr)
	}

	if n.db != nil {
		emails, err := n.db.GetAdminEmails(ctx)
		if err != nil {
			n.logger.Error("failed to get admin emails", "error", err)
		}
		for _, addr := range emails {
			add(addr)
		}
	}

	return out
}

// NotifyFeatureRequestCreated alerts admins and sends the submitter a receipt.
// Delivery is asynchronous and failures are only logged.
func (n *Notifier) NotifyFeatureRequestCreated(ctx context.Context, fr *models.FeatureRequest) {
	if !n.service.IsEnabled() {
		return
	}

	if admins := n.AdminRecipients(ctx); len(admins) > 0 {
		subject, htmlBody, textBody := n.templates.FeatureRequestAdminAlert(fr)
		n.service.SendAsync(admins, subject, htmlBody, textBody)
	} else {
		n.logger.Warn("no admin recipients for feature request alert", "request_id", fr.ID)
	}

	if fr.ContactEmail != "" {
		subject, htmlBody, textBody := n.templates.FeatureRequestConfirmation(fr)
		n.service.SendAsync([]string{fr.ContactEmail}, subject, htmlBody, textBody)
	}
}
