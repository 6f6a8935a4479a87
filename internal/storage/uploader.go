package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"top100/internal/db"
	"top100/internal/models"
	"top100/internal/validation"
)

// Image is an uploaded image file.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// InvalidImageError is returned when an image fails type or size checks.
type InvalidImageError struct {
	Message string
}

func (e *InvalidImageError) Error() string {
	return e.Message
}

// UploadRecorder persists upload bookkeeping rows.
type UploadRecorder interface {
	CreateUpload(ctx context.Context, u *models.Upload) error
	GetUploadByURL(ctx context.Context, ownerID uuid.UUID, url string) (*models.Upload, error)
	AttachUploadByURL(ctx context.Context, ownerID uuid.UUID, url string) error
	MarkUploadOrphaned(ctx context.Context, ownerID uuid.UUID, url string) error
}

// ImageUploader validates images, writes them to an ObjectStore and records
// each object so abandoned ones can be swept later.
type ImageUploader struct {
	store    ObjectStore
	recorder UploadRecorder
	maxBytes int64
	logger   *slog.Logger
}

// NewImageUploader creates an uploader. maxBytes bounds accepted image size.
func NewImageUploader(store ObjectStore, recorder UploadRecorder, maxBytes int64, logger *slog.Logger) *ImageUploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageUploader{store: store, recorder: recorder, maxBytes: maxBytes, logger: logger}
}

// ObjectKey returns the storage key for a new avatar of owner.
func ObjectKey(ownerID uuid.UUID, contentType string) (string, error) {
	ext, ok := validation.ImageExtension(contentType)
	if !ok {
		return "", &InvalidImageError{Message: "Image must be a JPEG, PNG, GIF or WebP file"}
	}
	return fmt.Sprintf("avatars/%s/%s%s", ownerID, uuid.New(), ext), nil
}

// Upload stores img on behalf of owner and returns its public URL.
func (u *ImageUploader) Upload(ctx context.Context, ownerID uuid.UUID, img Image) (string, error) {
	if ok, msg := validation.ValidateImage(img.ContentType, img.Size, u.maxBytes); !ok {
		return "", &InvalidImageError{Message: msg}
	}

	key, err := ObjectKey(ownerID, img.ContentType)
	if err != nil {
		return "", err
	}

	body := io.LimitReader(img.Body, u.maxBytes+1)
	url, err := u.store.Put(ctx, key, img.ContentType, body)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	rec := &models.Upload{
		OwnerID:     ownerID,
		ObjectKey:   key,
		URL:         url,
		ContentType: img.ContentType,
		SizeBytes:   img.Size,
	}
	if err := u.recorder.CreateUpload(ctx, rec); err != nil {
		if delErr := u.store.Delete(context.WithoutCancel(ctx), key); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			u.logger.Error("failed to remove unrecorded upload", "key", key, "error", delErr)
		}
		return "", fmt.Errorf("failed to record upload: %w", err)
	}

	return url, nil
}

// IsPending reports whether url is one of owner's uploads that no profile
// has adopted yet.
func (u *ImageUploader) IsPending(ctx context.Context, ownerID uuid.UUID, url string) (bool, error) {
	rec, err := u.recorder.GetUploadByURL(ctx, ownerID, url)
	if isUnknownUpload(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.State == models.UploadPending, nil
}

// Attach marks the upload behind url as adopted by owner's saved profile.
// URLs not produced by this uploader are ignored.
func (u *ImageUploader) Attach(ctx context.Context, ownerID uuid.UUID, url string) error {
	err := u.recorder.AttachUploadByURL(ctx, ownerID, url)
	if err != nil && !isUnknownUpload(err) {
		return err
	}
	return nil
}

// ReportOrphan marks the upload behind url as abandoned so the sweeper deletes it.
func (u *ImageUploader) ReportOrphan(ctx context.Context, ownerID uuid.UUID, url string) error {
	err := u.recorder.MarkUploadOrphaned(ctx, ownerID, url)
	if err != nil && !isUnknownUpload(err) {
		return err
	}
	return nil
}

func isUnknownUpload(err error) bool {
	return errors.Is(err, db.ErrUploadNotFound)
}
