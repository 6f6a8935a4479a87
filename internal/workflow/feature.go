package workflow

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"top100/internal/models"
	"top100/internal/validation"
)

// FeatureInput is the feature request form.
type FeatureInput struct {
	WantsFeatured  string // "yes" or "no"
	HasArticle     bool
	ArticleContent string
	ContactEmail   string
	WhatsappNumber string
}

// Outcome is where the user goes after the feature step. Request is nil when
// the user declined.
type Outcome struct {
	Request     *models.FeatureRequest
	RedirectURL string
}

// FeatureFlow is the optional step offered after a successful profile save.
type FeatureFlow struct {
	w         *Workflow
	awardeeID uuid.UUID
	name      string
	slug      string
}

// AwardeeID returns the awardee the flow is bound to.
func (f *FeatureFlow) AwardeeID() uuid.UUID {
	return f.awardeeID
}

// Submit validates the form and, when the user opted in, records a pending
// feature request. Identical submissions create separate requests.
func (f *FeatureFlow) Submit(ctx context.Context, in FeatureInput) (*Outcome, error) {
	redirect := f.w.cfg.ProfileURL(f.slug)

	switch strings.ToLower(strings.TrimSpace(in.WantsFeatured)) {
	case "no":
		return &Outcome{RedirectURL: redirect}, nil
	case "yes":
	default:
		return nil, &ValidationError{Field: "wants_featured", Message: "Please choose whether you want to be featured"}
	}

	fr, err := f.build(in)
	if err != nil {
		return nil, err
	}

	if !f.w.acquire(slotFeature, f.awardeeID) {
		return nil, ErrSubmitInProgress
	}
	defer f.w.release(slotFeature, f.awardeeID)

	cctx, cancel := f.w.bounded(ctx)
	defer cancel()

	if err := f.w.requests.CreateFeatureRequest(cctx, fr); err != nil {
		f.w.logger.Error("feature request submission failed", "awardee_id", f.awardeeID, "error", err)
		return nil, wrap(ErrSubmitFailed, err)
	}

	f.w.logger.Info("feature request submitted", "awardee_id", f.awardeeID, "request_id", fr.ID)
	return &Outcome{Request: fr, RedirectURL: redirect}, nil
}

func (f *FeatureFlow) build(in FeatureInput) (*models.FeatureRequest, error) {
	fr := &models.FeatureRequest{
		AwardeeID:     &f.awardeeID,
		AwardeeName:   f.name,
		HasOwnArticle: in.HasArticle,
		Amount:        f.w.cfg.Amount,
		Currency:      f.w.cfg.Currency,
		Status:        models.FeaturePending,
	}

	if in.HasArticle {
		fr.ArticleContent = validation.Optional(in.ArticleContent)
		if fr.ArticleContent == nil {
			return nil, &ValidationError{Field: "article_content", Message: "Please paste your article, or choose to have one written for you"}
		}
	}
	fr.NeedsArticleWritten = !in.HasArticle

	email := strings.TrimSpace(in.ContactEmail)
	phone := strings.TrimSpace(in.WhatsappNumber)
	if email == "" || phone == "" {
		return nil, &ValidationError{Field: "contact", Message: "Contact email and WhatsApp number are both required"}
	}
	if !validation.LooksLikeEmail(email) {
		return nil, &ValidationError{Field: "contact_email", Message: "Please enter a valid contact email"}
	}
	fr.ContactEmail = email
	fr.WhatsappNumber = phone

	return fr, nil
}
