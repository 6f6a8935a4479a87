package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"top100/internal/models"
)

const uploadColumns = `id, owner_id, object_key, url, content_type, size_bytes, state, created_at`

func scanUpload(row pgx.Row) (*models.Upload, error) {
	var u models.Upload
	err := row.Scan(&u.ID, &u.OwnerID, &u.ObjectKey, &u.URL, &u.ContentType, &u.SizeBytes, &u.State, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUploadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUpload records an object written to storage. State starts as pending.
func (d *DB) CreateUpload(ctx context.Context, u *models.Upload) error {
	query := `
		INSERT INTO uploads (owner_id, object_key, url, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, state, created_at
	`
	return d.Pool.QueryRow(ctx, query, u.OwnerID, u.ObjectKey, u.URL, u.ContentType, u.SizeBytes).
		Scan(&u.ID, &u.State, &u.CreatedAt)
}

// AttachUploadByURL marks the owner's upload with the given URL as attached.
// Returns ErrUploadNotFound when no matching upload exists.
func (d *DB) AttachUploadByURL(ctx context.Context, ownerID uuid.UUID, url string) error {
	tag, err := d.Pool.Exec(ctx,
		`UPDATE uploads SET state = 'attached' WHERE owner_id = $1 AND url = $2`, ownerID, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUploadNotFound
	}
	return nil
}

// GetUploadByURL returns the owner's upload with the given URL.
func (d *DB) GetUploadByURL(ctx context.Context, ownerID uuid.UUID, url string) (*models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE owner_id = $1 AND url = $2`
	return scanUpload(d.Pool.QueryRow(ctx, query, ownerID, url))
}

// AdoptUpload attaches a pending upload to ownerID whoever uploaded it. The
// admin console uses it for avatars uploaded before the awardee existed.
// Returns ErrUploadNotFound when no pending upload has the URL.
func (d *DB) AdoptUpload(ctx context.Context, ownerID uuid.UUID, url string) error {
	tag, err := d.Pool.Exec(ctx,
		`UPDATE uploads SET owner_id = $1, state = 'attached' WHERE url = $2 AND state = 'pending'`, ownerID, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUploadNotFound
	}
	return nil
}

// MarkUploadOrphaned flags an upload whose profile save never completed.
func (d *DB) MarkUploadOrphaned(ctx context.Context, ownerID uuid.UUID, url string) error {
	tag, err := d.Pool.Exec(ctx,
		`UPDATE uploads SET state = 'orphaned' WHERE owner_id = $1 AND url = $2 AND state != 'attached'`, ownerID, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUploadNotFound
	}
	return nil
}

// ListSweepableUploads returns orphaned uploads, plus pending uploads older
// than grace, up to limit rows.
func (d *DB) ListSweepableUploads(ctx context.Context, grace time.Duration, limit int) ([]models.Upload, error) {
	query := `
		SELECT ` + uploadColumns + ` FROM uploads
		WHERE state = 'orphaned'
		   OR (state = 'pending' AND created_at < NOW() - make_interval(secs => $1))
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := d.Pool.Query(ctx, query, grace.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []models.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, *u)
	}

	return uploads, rows.Err()
}

// DeleteUpload removes an upload record.
func (d *DB) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUploadNotFound
	}
	return nil
}
