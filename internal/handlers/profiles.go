package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"top100/internal/config"
	"top100/internal/db"
	"top100/internal/events"
	"top100/internal/metrics"
	"top100/internal/middleware"
	"top100/internal/models"
	"top100/internal/storage"
	"top100/internal/verification"
	"top100/internal/workflow"
)

// ProfileLoader loads awardee profiles.
type ProfileLoader interface {
	GetAwardeeByID(ctx context.Context, id uuid.UUID) (*models.Awardee, error)
}

// FeatureNotifier is told about newly created feature requests.
type FeatureNotifier interface {
	NotifyFeatureRequestCreated(ctx context.Context, fr *models.FeatureRequest)
}

// ProfileHandler serves the awardee self-service workflow.
type ProfileHandler struct {
	profiles  ProfileLoader
	wf        *workflow.Workflow
	notifier  FeatureNotifier
	publisher events.Publisher
	cfg       *config.Config
	program   *config.Program
	logger    *slog.Logger
}

// NewProfileHandler creates a new self-service handler.
func NewProfileHandler(profiles ProfileLoader, wf *workflow.Workflow, notifier FeatureNotifier, publisher events.Publisher, cfg *config.Config, program *config.Program, logger *slog.Logger) *ProfileHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ProfileHandler{
		profiles:  profiles,
		wf:        wf,
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg,
		program:   program,
		logger:    logger,
	}
}

type verifyResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// Verify checks the claimed email for a profile and, on a match, unlocks
// editing for this session.
func (h *ProfileHandler) Verify(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid profile id")
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.profiles.GetAwardeeByID(c.Context(), id)
	if errors.Is(err, db.ErrAwardeeNotFound) {
		metrics.VerificationAttempts.WithLabelValues("not_verified").Inc()
		return jsonSuccess(c, verifyResponse{Verified: false, Message: verification.FailureReason})
	}
	if err != nil {
		h.logger.Error("failed to load profile for verification", "awardee_id", id, "error", err)
		metrics.VerificationAttempts.WithLabelValues("error").Inc()
		return jsonError(c, fiber.StatusInternalServerError, "Verification could not be completed. Please try again.")
	}

	res, err := h.wf.Begin(profile).Verify(c.Context(), body.Email)
	if err != nil {
		h.logger.Error("verification failed", "awardee_id", id, "error", err)
		metrics.VerificationAttempts.WithLabelValues("error").Inc()
		return jsonError(c, fiber.StatusInternalServerError, "Verification could not be completed. Please try again.")
	}

	if !res.Verified {
		metrics.VerificationAttempts.WithLabelValues("not_verified").Inc()
		return jsonSuccess(c, verifyResponse{Verified: false, Message: res.Reason})
	}

	middleware.MarkVerified(c, id, h.cfg.VerificationTTL)
	middleware.ClearSaved(c, id)
	metrics.VerificationAttempts.WithLabelValues("verified").Inc()
	return jsonSuccess(c, verifyResponse{Verified: true, Message: "Email verified. You can now edit your profile."})
}

// Edit returns the editable fields of a verified owner's profile.
func (h *ProfileHandler) Edit(c fiber.Ctx) error {
	id := middleware.AwardeeID(c)

	profile, err := h.profiles.GetAwardeeByID(c.Context(), id)
	if err != nil {
		return h.profileLoadError(c, id, err)
	}

	return jsonSuccess(c, fiber.Map{
		"profile":          profile.Editable(),
		"social_platforms": h.program.SocialPlatforms,
		"max_image_bytes":  h.cfg.MaxImageBytes,
	})
}

type saveResponse struct {
	Profile       models.EditableProfile `json:"profile"`
	PublicURL     string                 `json:"public_url"`
	AvatarWarning string                 `json:"avatar_warning,omitempty"`
	Next          string                 `json:"next"`
}

// Save applies an edit form submission, optionally replacing the avatar.
func (h *ProfileHandler) Save(c fiber.Ctx) error {
	id := middleware.AwardeeID(c)

	profile, err := h.profiles.GetAwardeeByID(c.Context(), id)
	if err != nil {
		return h.profileLoadError(c, id, err)
	}

	changes, cleanup, err := parseChanges(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	defer cleanup()

	res, err := h.wf.Resume(profile).Save(c.Context(), changes)
	if err != nil {
		var verr *workflow.ValidationError
		switch {
		case errors.As(err, &verr):
			metrics.ProfileSaves.WithLabelValues("invalid").Inc()
			return jsonFieldError(c, verr.Field, verr.Message)
		case errors.Is(err, workflow.ErrSubmitInProgress):
			return jsonError(c, fiber.StatusConflict, "A save is already in progress")
		default:
			metrics.ProfileSaves.WithLabelValues("failed").Inc()
			return jsonError(c, fiber.StatusInternalServerError, "Failed to save profile. Please try again.")
		}
	}

	switch {
	case res.AvatarWarning != "":
		metrics.ProfileSaves.WithLabelValues("saved_with_warning").Inc()
		metrics.Uploads.WithLabelValues("failed").Inc()
	case changes.Image != nil:
		metrics.ProfileSaves.WithLabelValues("saved").Inc()
		metrics.Uploads.WithLabelValues("stored").Inc()
	default:
		metrics.ProfileSaves.WithLabelValues("saved").Inc()
	}

	middleware.MarkSaved(c, id)
	events.Notify(context.WithoutCancel(c.Context()), h.publisher, h.logger,
		events.NewChange(models.ChangeAwardee, id, events.ActionUpdated))

	return jsonSuccess(c, saveResponse{
		Profile:       res.Profile.Editable(),
		PublicURL:     h.cfg.PublicProfileURL(res.Profile.Slug),
		AvatarWarning: res.AvatarWarning,
		Next:          "feature_request",
	})
}

type featureRequestBody struct {
	WantsFeatured  string `json:"wants_featured"`
	HasArticle     bool   `json:"has_article"`
	ArticleContent string `json:"article_content"`
	ContactEmail   string `json:"contact_email"`
	WhatsappNumber string `json:"whatsapp_number"`
}

// FeatureRequest handles the optional feature step after a profile save.
func (h *ProfileHandler) FeatureRequest(c fiber.Ctx) error {
	id := middleware.AwardeeID(c)

	if !middleware.HasSaved(c, id) {
		return jsonError(c, fiber.StatusConflict, "Save your profile before requesting a feature")
	}

	var body featureRequestBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := h.profiles.GetAwardeeByID(c.Context(), id)
	if err != nil {
		return h.profileLoadError(c, id, err)
	}

	out, err := h.wf.FeatureFlow(profile).Submit(c.Context(), workflow.FeatureInput{
		WantsFeatured:  body.WantsFeatured,
		HasArticle:     body.HasArticle,
		ArticleContent: body.ArticleContent,
		ContactEmail:   body.ContactEmail,
		WhatsappNumber: body.WhatsappNumber,
	})
	if err != nil {
		var verr *workflow.ValidationError
		switch {
		case errors.As(err, &verr):
			return jsonFieldError(c, verr.Field, verr.Message)
		case errors.Is(err, workflow.ErrSubmitInProgress):
			return jsonError(c, fiber.StatusConflict, "Your request is already being submitted")
		default:
			return jsonError(c, fiber.StatusInternalServerError, "Failed to submit feature request. Please try again.")
		}
	}

	middleware.ClearSaved(c, id)

	if out.Request == nil {
		return jsonSuccess(c, fiber.Map{"redirect_url": out.RedirectURL})
	}

	metrics.FeatureRequestsCreated.Inc()
	ctx := context.WithoutCancel(c.Context())
	if h.notifier != nil {
		h.notifier.NotifyFeatureRequestCreated(ctx, out.Request)
	}
	events.Notify(ctx, h.publisher, h.logger,
		events.NewChange(models.ChangeFeatureRequest, out.Request.ID, events.ActionCreated))

	return jsonCreated(c, fiber.Map{
		"redirect_url": out.RedirectURL,
		"request":      out.Request,
	})
}

func (h *ProfileHandler) profileLoadError(c fiber.Ctx, id uuid.UUID, err error) error {
	if errors.Is(err, db.ErrAwardeeNotFound) {
		return jsonError(c, fiber.StatusNotFound, "profile not found")
	}
	h.logger.Error("failed to load profile", "awardee_id", id, "error", err)
	return jsonError(c, fiber.StatusInternalServerError, "failed to load profile")
}

type profileFields struct {
	Headline        string            `json:"headline"`
	Tagline         string            `json:"tagline"`
	Bio             string            `json:"bio"`
	SocialLinks     map[string]string `json:"social_links"`
	LinkedinPostURL string            `json:"linkedin_post_url"`
	// AvatarURL is an imageUrl returned by POST /api/uploads.
	AvatarURL string `json:"avatar_url"`
}

func (f profileFields) changes() workflow.Changes {
	return workflow.Changes{
		Headline:        f.Headline,
		Tagline:         f.Tagline,
		Bio:             f.Bio,
		SocialLinks:     f.SocialLinks,
		LinkedinPostURL: f.LinkedinPostURL,
		AvatarURL:       strings.TrimSpace(f.AvatarURL),
	}
}

var errInvalidBody = errors.New("invalid request body")

// parseChanges reads the edit form from a JSON body or a multipart form with
// an optional "image" file. cleanup releases the uploaded file.
func parseChanges(c fiber.Ctx) (workflow.Changes, func(), error) {
	noop := func() {}

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var f profileFields
		if err := json.Unmarshal(c.Body(), &f); err != nil {
			return workflow.Changes{}, noop, errInvalidBody
		}
		return f.changes(), noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return workflow.Changes{}, noop, errInvalidBody
	}

	f := profileFields{
		Headline:        formValue(form, "headline"),
		Tagline:         formValue(form, "tagline"),
		Bio:             formValue(form, "bio"),
		LinkedinPostURL: formValue(form, "linkedin_post_url"),
		AvatarURL:       formValue(form, "avatar_url"),
	}
	if raw := formValue(form, "social_links"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &f.SocialLinks); err != nil {
			return workflow.Changes{}, noop, errors.New("social_links must be a JSON object")
		}
	}
	changes := f.changes()

	files := form.File["image"]
	if len(files) == 0 {
		return changes, noop, nil
	}

	fh := files[0]
	file, err := fh.Open()
	if err != nil {
		return workflow.Changes{}, noop, errors.New("could not read image")
	}
	changes.Image = &storage.Image{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
	}
	return changes, func() { file.Close() }, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
