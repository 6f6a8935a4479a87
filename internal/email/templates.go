package email

import (
	"fmt"
	"html"
	"strings"

	"top100/internal/config"
	"top100/internal/models"
)

// Templates provides email template generation.
type Templates struct {
	cfg *config.Config
}

// NewTemplates creates a new templates instance.
func NewTemplates(cfg *config.Config) *Templates {
	return &Templates{cfg: cfg}
}

// baseHTML wraps content in a consistent HTML email template.
func (t *Templates) baseHTML(title, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; }
        .footer { background: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280; border-radius: 0 0 8px 8px; border: 1px solid #e5e7eb; border-top: none; }
        .button { display: inline-block; background: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
        .button:hover { background: #1d4ed8; }
        .info-box { background: white; border: 1px solid #e5e7eb; border-radius: 6px; padding: 15px; margin: 15px 0; }
        .label { font-weight: 600; color: #374151; }
        .value { color: #6b7280; }
        .success { color: #059669; }
        .warning { color: #d97706; }
        .error { color: #dc2626; }
        code { background: #e5e7eb; padding: 2px 6px; border-radius: 4px; font-family: monospace; }
    </style>
</head>
<body>
    <div class="header">
        <h1>%s</h1>
    </div>
    <div class="content">
        %s
    </div>
    <div class="footer">
        <p>This email was sent by %s</p>
        <p><a href="%s">%s</a></p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(t.cfg.SiteTitle), content, html.EscapeString(t.cfg.SiteTitle), t.cfg.BaseURL, t.cfg.BaseURL)
}

// FormatAmount renders a minor-unit amount with its currency code.
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", strings.ToUpper(currency), amount/100, amount%100)
}

func articleSummary(fr *models.FeatureRequest) string {
	if fr.HasOwnArticle {
		return "Awardee provided their own article"
	}
	return "Article to be written by the editorial team"
}

// FeatureRequestAdminAlert generates the admin alert for a new feature request.
func (t *Templates) FeatureRequestAdminAlert(fr *models.FeatureRequest) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] New feature request from %s", t.cfg.SiteTitle, fr.AwardeeName)
	adminURL := t.cfg.BaseURL + "/admin/feature-requests/" + fr.ID.String()

	whatsapp := fr.WhatsappNumber
	if whatsapp == "" {
		whatsapp = "-"
	}

	content := fmt.Sprintf(`
        <p>An awardee has asked to be featured.</p>

        <div class="info-box">
            <p><span class="label">Awardee:</span> %s</p>
            <p><span class="label">Article:</span> %s</p>
            <p><span class="label">Contact email:</span> %s</p>
            <p><span class="label">WhatsApp:</span> %s</p>
            <p><span class="label">Amount:</span> %s</p>
        </div>

        <p style="text-align: center;">
            <a href="%s" class="button">Open Request</a>
        </p>
    `,
		html.EscapeString(fr.AwardeeName),
		html.EscapeString(articleSummary(fr)),
		html.EscapeString(fr.ContactEmail),
		html.EscapeString(whatsapp),
		html.EscapeString(FormatAmount(fr.Amount, fr.Currency)),
		adminURL,
	)

	htmlBody = t.baseHTML("New Feature Request", content)

	textBody = fmt.Sprintf(`New Feature Request

Awardee: %s
Article: %s
Contact email: %s
WhatsApp: %s
Amount: %s

Open request: %s
`, fr.AwardeeName, articleSummary(fr), fr.ContactEmail, whatsapp, FormatAmount(fr.Amount, fr.Currency), adminURL)

	return subject, htmlBody, textBody
}

// FeatureRequestConfirmation generates the receipt sent to the submitter.
func (t *Templates) FeatureRequestConfirmation(fr *models.FeatureRequest) (subject, htmlBody, textBody string) {
	subject = fmt.Sprintf("[%s] We received your feature request", t.cfg.SiteTitle)

	content := fmt.Sprintf(`
        <p>Hi %s,</p>
        <p class="success">Thank you! Your feature request has been received.</p>

        <div class="info-box">
            <p><span class="label">Article:</span> %s</p>
            <p><span class="label">Amount:</span> %s</p>
            <p><span class="label">Reference:</span> <code>%s</code></p>
        </div>

        <p>Our team will contact you at this address to arrange payment and next steps.</p>
    `,
		html.EscapeString(fr.AwardeeName),
		html.EscapeString(articleSummary(fr)),
		html.EscapeString(FormatAmount(fr.Amount, fr.Currency)),
		fr.ID.String(),
	)

	htmlBody = t.baseHTML("Feature Request Received", content)

	textBody = fmt.Sprintf(`Hi %s,

Thank you! Your feature request has been received.

Article: %s
Amount: %s
Reference: %s

Our team will contact you at this address to arrange payment and next steps.
`, fr.AwardeeName, articleSummary(fr), FormatAmount(fr.Amount, fr.Currency), fr.ID.String())

	return subject, htmlBody, textBody
}
