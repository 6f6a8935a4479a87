package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"top100/internal/db"
	"top100/internal/events"
	"top100/internal/models"
	"top100/internal/validation"
)

type announcementBody struct {
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	LinkURL     string     `json:"link_url"`
	IsActive    bool       `json:"is_active"`
	PublishedAt *time.Time `json:"published_at"`
}

func (b announcementBody) announcement() (*models.Announcement, string, string) {
	title := strings.TrimSpace(b.Title)
	if title == "" {
		return nil, "title", "Title is required"
	}
	if link := strings.TrimSpace(b.LinkURL); link != "" {
		if ok, msg := validation.ValidateURL(link); !ok {
			return nil, "link_url", msg
		}
	}

	a := &models.Announcement{
		Title:    title,
		Body:     strings.TrimSpace(b.Body),
		LinkURL:  validation.Optional(b.LinkURL),
		IsActive: b.IsActive,
	}
	if b.PublishedAt != nil {
		a.PublishedAt = b.PublishedAt.UTC()
	}
	return a, "", ""
}

// ListAnnouncements returns all announcements, inactive ones included.
func (h *AdminHandler) ListAnnouncements(c fiber.Ctx) error {
	list, err := h.store.ListAnnouncements(c.Context(), false)
	if err != nil {
		return h.internalError(c, "failed to fetch announcements", err)
	}
	return jsonSuccess(c, list)
}

// CreateAnnouncement adds an announcement.
func (h *AdminHandler) CreateAnnouncement(c fiber.Ctx) error {
	var body announcementBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	a, field, msg := body.announcement()
	if a == nil {
		return jsonFieldError(c, field, msg)
	}

	if err := h.store.CreateAnnouncement(c.Context(), a); err != nil {
		return h.internalError(c, "failed to create announcement", err)
	}

	h.changed(c, models.ChangeAnnouncement, a.ID, events.ActionCreated)
	return jsonCreated(c, a)
}

// UpdateAnnouncement replaces an announcement's fields.
func (h *AdminHandler) UpdateAnnouncement(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid announcement id")
	}

	var body announcementBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	a, field, msg := body.announcement()
	if a == nil {
		return jsonFieldError(c, field, msg)
	}
	a.ID = id

	if err := h.store.UpdateAnnouncement(c.Context(), a); err != nil {
		if errors.Is(err, db.ErrAnnouncementNotFound) {
			return jsonError(c, fiber.StatusNotFound, "announcement not found")
		}
		return h.internalError(c, "failed to update announcement", err)
	}

	h.changed(c, models.ChangeAnnouncement, id, events.ActionUpdated)
	return jsonSuccess(c, a)
}

// ToggleAnnouncement flips an announcement's active flag.
func (h *AdminHandler) ToggleAnnouncement(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid announcement id")
	}

	a, err := h.store.ToggleAnnouncement(c.Context(), id)
	if errors.Is(err, db.ErrAnnouncementNotFound) {
		return jsonError(c, fiber.StatusNotFound, "announcement not found")
	}
	if err != nil {
		return h.internalError(c, "failed to toggle announcement", err)
	}

	h.changed(c, models.ChangeAnnouncement, id, events.ActionUpdated)
	return jsonSuccess(c, a)
}

// DeleteAnnouncement removes an announcement.
func (h *AdminHandler) DeleteAnnouncement(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid announcement id")
	}

	if err := h.store.DeleteAnnouncement(c.Context(), id); err != nil {
		if errors.Is(err, db.ErrAnnouncementNotFound) {
			return jsonError(c, fiber.StatusNotFound, "announcement not found")
		}
		return h.internalError(c, "failed to delete announcement", err)
	}

	h.changed(c, models.ChangeAnnouncement, id, events.ActionDeleted)
	return jsonSuccess(c, fiber.Map{"deleted": true})
}

type eventBody struct {
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	RegistrationURL string     `json:"registration_url"`
	ImageURL        string     `json:"image_url"`
	IsFeatured      bool       `json:"is_featured"`
}

func (b eventBody) event() (*models.Event, string, string) {
	title := strings.TrimSpace(b.Title)
	if title == "" {
		return nil, "title", "Title is required"
	}
	if b.StartsAt.IsZero() {
		return nil, "starts_at", "Start time is required"
	}
	if b.EndsAt != nil && b.EndsAt.Before(b.StartsAt) {
		return nil, "ends_at", "End time must be after the start time"
	}
	for field, raw := range map[string]string{"registration_url": b.RegistrationURL, "image_url": b.ImageURL} {
		if raw = strings.TrimSpace(raw); raw != "" {
			if ok, msg := validation.ValidateURL(raw); !ok {
				return nil, field, msg
			}
		}
	}

	e := &models.Event{
		Title:           title,
		Description:     strings.TrimSpace(b.Description),
		Location:        strings.TrimSpace(b.Location),
		StartsAt:        b.StartsAt.UTC(),
		RegistrationURL: validation.Optional(b.RegistrationURL),
		ImageURL:        validation.Optional(b.ImageURL),
		IsFeatured:      b.IsFeatured,
	}
	if b.EndsAt != nil {
		ends := b.EndsAt.UTC()
		e.EndsAt = &ends
	}
	return e, "", ""
}

// ListEvents returns every event.
func (h *AdminHandler) ListEvents(c fiber.Ctx) error {
	list, err := h.store.ListEvents(c.Context(), time.Time{})
	if err != nil {
		return h.internalError(c, "failed to fetch events", err)
	}
	return jsonSuccess(c, list)
}

// CreateEvent adds an event.
func (h *AdminHandler) CreateEvent(c fiber.Ctx) error {
	var body eventBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	e, field, msg := body.event()
	if e == nil {
		return jsonFieldError(c, field, msg)
	}

	if err := h.store.CreateEvent(c.Context(), e); err != nil {
		return h.internalError(c, "failed to create event", err)
	}

	h.changed(c, models.ChangeEvent, e.ID, events.ActionCreated)
	return jsonCreated(c, e)
}

// UpdateEvent replaces an event's fields.
func (h *AdminHandler) UpdateEvent(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid event id")
	}

	var body eventBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	e, field, msg := body.event()
	if e == nil {
		return jsonFieldError(c, field, msg)
	}
	e.ID = id

	if err := h.store.UpdateEvent(c.Context(), e); err != nil {
		if errors.Is(err, db.ErrEventNotFound) {
			return jsonError(c, fiber.StatusNotFound, "event not found")
		}
		return h.internalError(c, "failed to update event", err)
	}

	h.changed(c, models.ChangeEvent, id, events.ActionUpdated)
	return jsonSuccess(c, e)
}

// ToggleEventFeatured flips an event's featured flag.
func (h *AdminHandler) ToggleEventFeatured(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid event id")
	}

	e, err := h.store.GetEvent(c.Context(), id)
	if errors.Is(err, db.ErrEventNotFound) {
		return jsonError(c, fiber.StatusNotFound, "event not found")
	}
	if err != nil {
		return h.internalError(c, "failed to fetch event", err)
	}

	e.IsFeatured = !e.IsFeatured
	if err := h.store.UpdateEvent(c.Context(), e); err != nil {
		if errors.Is(err, db.ErrEventNotFound) {
			return jsonError(c, fiber.StatusNotFound, "event not found")
		}
		return h.internalError(c, "failed to update event", err)
	}

	h.changed(c, models.ChangeEvent, id, events.ActionUpdated)
	return jsonSuccess(c, e)
}

// DeleteEvent removes an event.
func (h *AdminHandler) DeleteEvent(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid event id")
	}

	if err := h.store.DeleteEvent(c.Context(), id); err != nil {
		if errors.Is(err, db.ErrEventNotFound) {
			return jsonError(c, fiber.StatusNotFound, "event not found")
		}
		return h.internalError(c, "failed to delete event", err)
	}

	h.changed(c, models.ChangeEvent, id, events.ActionDeleted)
	return jsonSuccess(c, fiber.Map{"deleted": true})
}
