package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"top100/internal/db"
	"top100/internal/events"
	"top100/internal/models"
)

// ListFeatureRequests returns feature requests, optionally filtered by
// ?status= and ?updated_since= (RFC 3339).
func (h *AdminHandler) ListFeatureRequests(c fiber.Ctx) error {
	limit, offset := pagination(c)
	filter := models.FeatureRequestFilter{Limit: limit, Offset: offset}

	if s := c.Query("status"); s != "" {
		status, err := models.ParseFeatureStatus(s)
		if err != nil {
			return jsonFieldError(c, "status", err.Error())
		}
		filter.Status = status
	}
	if s := c.Query("updated_since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return jsonFieldError(c, "updated_since", "updated_since must be an RFC 3339 timestamp")
		}
		filter.UpdatedSince = &since
	}

	list, err := h.store.ListFeatureRequests(c.Context(), filter)
	if err != nil {
		return h.internalError(c, "failed to fetch feature requests", err)
	}
	return jsonSuccess(c, list)
}

// GetFeatureRequest returns one feature request.
func (h *AdminHandler) GetFeatureRequest(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid feature request id")
	}

	fr, err := h.store.GetFeatureRequest(c.Context(), id)
	if errors.Is(err, db.ErrFeatureRequestNotFound) {
		return jsonError(c, fiber.StatusNotFound, "feature request not found")
	}
	if err != nil {
		return h.internalError(c, "failed to fetch feature request", err)
	}
	return jsonSuccess(c, fr)
}

// UpdateFeatureRequestStatus moves a request through its service lifecycle.
func (h *AdminHandler) UpdateFeatureRequestStatus(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid feature request id")
	}

	var body struct {
		Status     string  `json:"status"`
		AdminNotes *string `json:"admin_notes"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	next, err := models.ParseFeatureStatus(body.Status)
	if err != nil {
		return jsonFieldError(c, "status", err.Error())
	}

	fr, err := h.store.UpdateFeatureRequestStatus(c.Context(), id, next, body.AdminNotes)
	if err != nil {
		return h.requestMutationError(c, err)
	}

	h.changed(c, models.ChangeFeatureRequest, id, events.ActionUpdated)
	return jsonSuccess(c, fr)
}

// UpdateFeatureRequestPayment sets a request's payment status.
func (h *AdminHandler) UpdateFeatureRequestPayment(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid feature request id")
	}

	var body struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	next, err := models.ParsePaymentStatus(body.PaymentStatus)
	if err != nil {
		return jsonFieldError(c, "payment_status", err.Error())
	}

	fr, err := h.store.UpdateFeatureRequestPayment(c.Context(), id, next)
	if err != nil {
		return h.requestMutationError(c, err)
	}

	h.changed(c, models.ChangeFeatureRequest, id, events.ActionUpdated)
	return jsonSuccess(c, fr)
}

// DeleteFeatureRequest removes a request.
func (h *AdminHandler) DeleteFeatureRequest(c fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid feature request id")
	}

	if err := h.store.DeleteFeatureRequest(c.Context(), id); err != nil {
		return h.requestMutationError(c, err)
	}

	h.changed(c, models.ChangeFeatureRequest, id, events.ActionDeleted)
	return jsonSuccess(c, fiber.Map{"deleted": true})
}

func (h *AdminHandler) requestMutationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, db.ErrFeatureRequestNotFound):
		return jsonError(c, fiber.StatusNotFound, "feature request not found")
	case errors.Is(err, db.ErrInvalidTransition):
		return jsonError(c, fiber.StatusConflict, err.Error())
	}
	return h.internalError(c, "failed to update feature request", err)
}
