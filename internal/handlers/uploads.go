package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"top100/internal/metrics"
	"top100/internal/middleware"
	"top100/internal/storage"
)

// ImageStore accepts avatar uploads.
type ImageStore interface {
	Upload(ctx context.Context, ownerID uuid.UUID, img storage.Image) (string, error)
}

// UploadHandler serves the standalone image upload endpoint.
type UploadHandler struct {
	images ImageStore
	logger *slog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(images ImageStore, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{images: images, logger: logger}
}

// Upload stores a multipart "image" for owner_id and returns its URL. The
// session must have verified ownership of owner_id or belong to a content
// editor. The upload stays pending until a save adopts the URL.
func (h *UploadHandler) Upload(c fiber.Ctx) error {
	ownerID, err := uuid.Parse(c.FormValue("owner_id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "owner_id is required")
	}
	if !middleware.IsVerified(c, ownerID) {
		if user := middleware.GetUser(c); user == nil || !user.CanEditContent() {
			return jsonError(c, fiber.StatusForbidden, "Email verification required")
		}
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "image is required")
	}
	file, err := fh.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "could not read image")
	}
	defer file.Close()

	url, err := h.images.Upload(c.Context(), ownerID, storage.Image{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		var invalid *storage.InvalidImageError
		if errors.As(err, &invalid) {
			metrics.Uploads.WithLabelValues("rejected").Inc()
			return jsonFieldError(c, "image", invalid.Message)
		}
		metrics.Uploads.WithLabelValues("failed").Inc()
		h.logger.Error("image upload failed", "owner_id", ownerID, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to upload image. Please try again.")
	}

	metrics.Uploads.WithLabelValues("stored").Inc()
	return jsonCreated(c, fiber.Map{"imageUrl": url})
}
