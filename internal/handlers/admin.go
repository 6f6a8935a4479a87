package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"top100/internal/config"
	"top100/internal/db"
	"top100/internal/events"
	"top100/internal/models"
	"top100/internal/validation"
)

// AdminStore is the persistence used by the admin console API.
type AdminStore interface {
	GetAwardeeByID(ctx context.Context, id uuid.UUID) (*models.Awardee, error)
	ListAwardees(ctx context.Context, f models.AwardeeFilter) (*models.AwardeePage, error)
	CreateAwardee(ctx context.Context, a *models.Awardee) error
	UpdateAwardee(ctx context.Context, a *models.Awardee) error
	SetAwardeeVisibility(ctx context.Context, id uuid.UUID, public bool) error
	DeleteAwardee(ctx context.Context, id uuid.UUID) error
	CountAwardees(ctx context.Context) (total, public int, err error)

	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	GetAnnouncement(ctx context.Context, id uuid.UUID) (*models.Announcement, error)
	UpdateAnnouncement(ctx context.Context, a *models.Announcement) error
	ToggleAnnouncement(ctx context.Context, id uuid.UUID) (*models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id uuid.UUID) error
	ListAnnouncements(ctx context.Context, activeOnly bool) ([]models.Announcement, error)

	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	ListEvents(ctx context.Context, from time.Time) ([]models.Event, error)

	GetFeatureRequest(ctx context.Context, id uuid.UUID) (*models.FeatureRequest, error)
	ListFeatureRequests(ctx context.Context, f models.FeatureRequestFilter) ([]models.FeatureRequest, error)
	UpdateFeatureRequestStatus(ctx context.Context, id uuid.UUID, next models.FeatureStatus, notes *string) (*models.FeatureRequest, error)
	UpdateFeatureRequestPayment(ctx context.Context, id uuid.UUID, next models.PaymentStatus) (*models.FeatureRequest, error)
	DeleteFeatureRequest(ctx context.Context, id uuid.UUID) error
	CountFeatureRequestsByStatus(ctx context.Context) ([]models.StatusCount, error)

	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	AdoptUpload(ctx context.Context, ownerID uuid.UUID, url string) error
}

// AdminHandler serves the admin console JSON API.
type AdminHandler struct {
	store     AdminStore
	publisher events.Publisher
	program   *config.Program
	logger    *slog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(store AdminStore, publisher events.Publisher, program *config.Program, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &AdminHandler{store: store, publisher: publisher, program: program, logger: logger}
}

// changed publishes a change after a successful mutation. Failures are logged
// by events.Notify and never change the response.
func (h *AdminHandler) changed(c fiber.Ctx, kind string, id uuid.UUID, action string) {
	events.Notify(context.WithoutCancel(c.Context()), h.publisher, h.logger, events.NewChange(kind, id, action))
}

func (h *AdminHandler) internalError(c fiber.Ctx, message string, err error) error {
	h.logger.Error(message, "path", c.Path(), "error", err)
	return jsonError(c, fiber.StatusInternalServerError, message)
}

// Stats returns dashboard counters.
func (h *AdminHandler) Stats(c fiber.Ctx) error {
	total, public, err := h.store.CountAwardees(c.Context())
	if err != nil {
		return h.internalError(c, "failed to count awardees", err)
	}

	counts, err := h.store.CountFeatureRequestsByStatus(c.Context())
	if err != nil {
		return h.internalError(c, "failed to count feature requests", err)
	}
	byStatus := make(map[models.FeatureStatus]int64, len(models.FeatureStatuses))
	for _, s := range models.FeatureStatuses {
		byStatus[s] = 0
	}
	for _, sc := range counts {
		byStatus[sc.Status] = sc.Count
	}

	return jsonSuccess(c, fiber.Map{
		"awardees":         total,
		"public_awardees":  public,
		"feature_requests": byStatus,
	})
}

type awardeeBody struct {
	Slug            string            `json:"slug"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Headline        string            `json:"headline"`
	Tagline         string            `json:"tagline"`
	Bio             string            `json:"bio"`
	AvatarURL       string            `json:"avatar_url"`
	SocialLinks     map[string]string `json:"social_links"`
	LinkedinPostURL string            `json:"linkedin_post_url"`
	Country         string            `json:"country"`
	CohortYear      int               `json:"cohort_year"`
	IsPublic        bool              `json:"is_public"`
}

// awardee validates the body and builds the record. The returned field names
// the first invalid input.
func (b awardeeBody) awardee(p *config.Program) (*models.Awardee, string, string) {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return nil, "name", "Name is required"
	}

	slug := strings.ToLower(strings.TrimSpace(b.Slug))
	if slug == "" {
		slug = validation.Slugify(name)
	}
	if !validation.ValidateSlug(slug) {
		return nil, "slug", "Slug may only contain lowercase letters, numbers and hyphens"
	}

	email := strings.TrimSpace(b.Email)
	if !validation.LooksLikeEmail(email) {
		return nil, "email", "A valid email address is required"
	}

	urls := []struct {
		field, raw string
		check      func(string) (bool, string)
	}{
		{"avatar_url", b.AvatarURL, validation.ValidateAvatarURL},
		{"linkedin_post_url", b.LinkedinPostURL, validation.ValidateURL},
	}
	for _, u := range urls {
		if raw := strings.TrimSpace(u.raw); raw != "" {
			if ok, msg := u.check(raw); !ok {
				return nil, u.field, msg
			}
		}
	}

	links := make(map[string]string, len(b.SocialLinks))
	for _, key := range slices.Sorted(maps.Keys(b.SocialLinks)) {
		platform := strings.ToLower(strings.TrimSpace(key))
		raw := strings.TrimSpace(b.SocialLinks[key])
		if raw == "" {
			continue
		}
		if !p.HasPlatform(platform) {
			return nil, "social_links", "Unsupported social platform: " + platform
		}
		if ok, msg := validation.ValidateURL(raw); !ok {
			return nil, "social_links", platform + ": " + msg
		}
		links[platform] = raw
	}

	return &models.Awardee{
		Slug:            slug,
		Name:            name,
		Email:           email,
		Headline:        validation.Optional(b.Headline),
		Tagline:         validation.Optional(b.Tagline),
		Bio:             validation.Optional(b.Bio),
		AvatarURL:       validation.Optional(b.AvatarURL),
		SocialLinks:     links,
		LinkedinPostURL: validation.Optional(b.LinkedinPostURL),
		Country:         strings.TrimSpace(b.Country),
		CohortYear:      b.CohortYear,
		IsPublic:        b.IsPublic,
	}, "", ""
}

// ListAwardees returns every awardee, hidden ones included.
func (h *AdminHandler) ListAwardees(c fiber.Ctx) error {
	limit, offset := pagination(c)
	page, err := h.store.ListAwardees(c.Context(), models.AwardeeFilter{
		Query:      c.Query("q"),
		Country:    c.Query("country"),
		CohortYear: queryInt(c, "year", 0),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return h.internalError(c, "failed to fetch awardees", err)
	}
	return jsonSuccess(c, page)
}

// GetAwardee returns one awardee including the verification email.
func (h *AdminHandler) GetAwardee(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid awardee id")
	}

	a, err := h.store.GetAwardeeByID(c.Context(), id)
	if errors.Is(err, db.ErrAwardeeNotFound) {
		return jsonError(c, fiber.StatusNotFound, "awardee not found")
	}
	if err != nil {
		return h.internalError(c, "failed to fetch awardee", err)
	}

	return jsonSuccess(c, struct {
		*models.Awardee
		Email string `json:"email"`
	}{a, a.Email})
}

// CreateAwardee adds a new awardee.
func (h *AdminHandler) CreateAwardee(c fiber.Ctx) error {
	var body awardeeBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	a, field, msg := body.awardee(h.program)
	if a == nil {
		return jsonFieldError(c, field, msg)
	}

	if err := h.store.CreateAwardee(c.Context(), a); err != nil {
		if errors.Is(err, db.ErrDuplicateSlug) {
			return jsonFieldError(c, "slug", "An awardee with this slug already exists")
		}
		return h.internalError(c, "failed to create awardee", err)
	}

	h.adoptAvatar(c, a)
	h.changed(c, models.ChangeAwardee, a.ID, events.ActionCreated)
	return jsonCreated(c, a)
}

// UpdateAwardee replaces an awardee's fields.
func (h *AdminHandler) UpdateAwardee(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid awardee id")
	}

	var body awardeeBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	a, field, msg := body.awardee(h.program)
	if a == nil {
		return jsonFieldError(c, field, msg)
	}
	a.ID = id

	if err := h.store.UpdateAwardee(c.Context(), a); err != nil {
		switch {
		case errors.Is(err, db.ErrAwardeeNotFound):
			return jsonError(c, fiber.StatusNotFound, "awardee not found")
		case errors.Is(err, db.ErrDuplicateSlug):
			return jsonFieldError(c, "slug", "An awardee with this slug already exists")
		}
		return h.internalError(c, "failed to update awardee", err)
	}

	h.adoptAvatar(c, a)
	h.changed(c, models.ChangeAwardee, id, events.ActionUpdated)
	return jsonSuccess(c, a)
}

// adoptAvatar keeps an avatar stored through the upload endpoint from being
// swept. External URLs have no upload record and are left alone.
func (h *AdminHandler) adoptAvatar(c fiber.Ctx, a *models.Awardee) {
	if a.AvatarURL == nil {
		return
	}
	err := h.store.AdoptUpload(c.Context(), a.ID, *a.AvatarURL)
	if err != nil && !errors.Is(err, db.ErrUploadNotFound) {
		h.logger.Error("failed to attach avatar upload", "awardee_id", a.ID, "url", *a.AvatarURL, "error", err)
	}
}

// SetAwardeeVisibility publishes or hides an awardee.
func (h *AdminHandler) SetAwardeeVisibility(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid awardee id")
	}

	var body struct {
		IsPublic *bool `json:"is_public"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil || body.IsPublic == nil {
		return jsonError(c, fiber.StatusBadRequest, "is_public is required")
	}

	if err := h.store.SetAwardeeVisibility(c.Context(), id, *body.IsPublic); err != nil {
		if errors.Is(err, db.ErrAwardeeNotFound) {
			return jsonError(c, fiber.StatusNotFound, "awardee not found")
		}
		return h.internalError(c, "failed to update visibility", err)
	}

	h.changed(c, models.ChangeAwardee, id, events.ActionUpdated)
	return jsonSuccess(c, fiber.Map{"id": id, "is_public": *body.IsPublic})
}

// DeleteAwardee removes an awardee.
func (h *AdminHandler) DeleteAwardee(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid awardee id")
	}

	if err := h.store.DeleteAwardee(c.Context(), id); err != nil {
		if errors.Is(err, db.ErrAwardeeNotFound) {
			return jsonError(c, fiber.StatusNotFound, "awardee not found")
		}
		return h.internalError(c, "failed to delete awardee", err)
	}

	h.changed(c, models.ChangeAwardee, id, events.ActionDeleted)
	return jsonSuccess(c, fiber.Map{"deleted": true})
}

// ListUsers returns all admin console users.
func (h *AdminHandler) ListUsers(c fiber.Ctx) error {
	users, err := h.store.ListUsers(c.Context())
	if err != nil {
		return h.internalError(c, "failed to fetch users", err)
	}
	return jsonSuccess(c, users)
}

// UpdateUserRole changes a user's role.
func (h *AdminHandler) UpdateUserRole(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.Role != models.RoleEditor && body.Role != models.RoleAdmin {
		return jsonFieldError(c, "role", "Role must be editor or admin")
	}

	if current := currentUser(c); current != nil && current.ID == id && body.Role != models.RoleAdmin {
		return jsonError(c, fiber.StatusBadRequest, "you cannot remove your own admin role")
	}

	if err := h.store.UpdateUserRole(c.Context(), id, body.Role); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusNotFound, "user not found")
		}
		return h.internalError(c, "failed to update role", err)
	}

	user, err := h.store.GetUserByID(c.Context(), id)
	if err != nil {
		return h.internalError(c, "failed to fetch user", err)
	}
	return jsonSuccess(c, user)
}

func currentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
