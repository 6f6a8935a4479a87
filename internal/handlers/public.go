package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"top100/internal/config"
	"top100/internal/db"
	"top100/internal/models"
)

const maxSpotlight = 24

// PublicStore is the read side used by public pages and the public API.
type PublicStore interface {
	GetAwardeeBySlug(ctx context.Context, slug string) (*models.Awardee, error)
	ListAwardees(ctx context.Context, f models.AwardeeFilter) (*models.AwardeePage, error)
	RandomPublicAwardees(ctx context.Context, n int) ([]models.Awardee, error)
	ListAnnouncements(ctx context.Context, activeOnly bool) ([]models.Announcement, error)
	ListEvents(ctx context.Context, from time.Time) ([]models.Event, error)
}

// PublicHandler serves public awardee pages and listings.
type PublicHandler struct {
	store   PublicStore
	cfg     *config.Config
	program *config.Program
	logger  *slog.Logger
}

// NewPublicHandler creates a new public handler.
func NewPublicHandler(store PublicStore, cfg *config.Config, program *config.Program, logger *slog.Logger) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{store: store, cfg: cfg, program: program, logger: logger}
}

// publicAwardee returns a profile by slug, treating hidden profiles as missing.
func (h *PublicHandler) publicAwardee(ctx context.Context, slug string) (*models.Awardee, error) {
	a, err := h.store.GetAwardeeBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	if !a.IsPublic {
		return nil, db.ErrAwardeeNotFound
	}
	return a, nil
}

// Page renders the public profile page.
func (h *PublicHandler) Page(c fiber.Ctx) error {
	a, err := h.publicAwardee(c.Context(), c.Params("slug"))
	if errors.Is(err, db.ErrAwardeeNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Profile not found")
	}
	if err != nil {
		h.logger.Error("failed to load awardee page", "slug", c.Params("slug"), "error", err)
		return err
	}

	return c.Render("awardee", h.pageData(a.Name, fiber.Map{
		"Awardee": a,
		"URL":     h.cfg.PublicProfileURL(a.Slug),
	}))
}

// pageData adds the title and site branding the layout renders.
func (h *PublicHandler) pageData(title string, data fiber.Map) fiber.Map {
	data["Title"] = title
	data["SiteTitle"] = h.cfg.SiteTitle
	data["SiteTagline"] = h.cfg.SiteTagline
	data["BaseURL"] = h.cfg.BaseURL
	return data
}

// List returns a filtered page of public awardees.
func (h *PublicHandler) List(c fiber.Ctx) error {
	limit, offset := pagination(c)
	page, err := h.store.ListAwardees(c.Context(), models.AwardeeFilter{
		Query:      c.Query("q"),
		Country:    c.Query("country"),
		CohortYear: queryInt(c, "year", 0),
		PublicOnly: true,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.logger.Error("failed to list awardees", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch awardees")
	}
	return jsonSuccess(c, page)
}

// Spotlight returns a random sample of public awardees.
func (h *PublicHandler) Spotlight(c fiber.Ctx) error {
	n := queryInt(c, "n", h.program.SpotlightSize)
	if n == 0 {
		n = h.program.SpotlightSize
	}
	n = min(n, maxSpotlight)

	awardees, err := h.store.RandomPublicAwardees(c.Context(), n)
	if err != nil {
		h.logger.Error("failed to sample awardees", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch awardees")
	}
	return jsonSuccess(c, awardees)
}

// Get returns one public awardee by slug.
func (h *PublicHandler) Get(c fiber.Ctx) error {
	a, err := h.publicAwardee(c.Context(), c.Params("slug"))
	if errors.Is(err, db.ErrAwardeeNotFound) {
		return jsonError(c, fiber.StatusNotFound, "awardee not found")
	}
	if err != nil {
		h.logger.Error("failed to load awardee", "slug", c.Params("slug"), "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch awardee")
	}
	return jsonSuccess(c, a)
}

// Announcements returns active, published announcements.
func (h *PublicHandler) Announcements(c fiber.Ctx) error {
	list, err := h.store.ListAnnouncements(c.Context(), true)
	if err != nil {
		h.logger.Error("failed to list announcements", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch announcements")
	}
	return jsonSuccess(c, list)
}

// Events returns upcoming events, or every event with ?all=true.
func (h *PublicHandler) Events(c fiber.Ctx) error {
	from := time.Now().UTC()
	if c.Query("all") == "true" {
		from = time.Time{}
	}

	list, err := h.store.ListEvents(c.Context(), from)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch events")
	}
	return jsonSuccess(c, list)
}
