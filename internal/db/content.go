package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"top100/internal/models"
)

const announcementColumns = `id, title, body, link_url, is_active, published_at, created_at, updated_at`

func scanAnnouncement(row pgx.Row) (*models.Announcement, error) {
	var a models.Announcement
	err := row.Scan(&a.ID, &a.Title, &a.Body, &a.LinkURL, &a.IsActive, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAnnouncementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAnnouncement inserts a new announcement. A zero PublishedAt means now.
func (d *DB) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	var published any
	if !a.PublishedAt.IsZero() {
		published = a.PublishedAt
	}

	query := `
		INSERT INTO announcements (title, body, link_url, is_active, published_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING id, published_at, created_at, updated_at
	`
	return d.Pool.QueryRow(ctx, query, a.Title, a.Body, a.LinkURL, a.IsActive, published).
		Scan(&a.ID, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
}

// GetAnnouncement retrieves an announcement by ID.
func (d *DB) GetAnnouncement(ctx context.Context, id uuid.UUID) (*models.Announcement, error) {
	return scanAnnouncement(d.Pool.QueryRow(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id))
}

// UpdateAnnouncement replaces an announcement's editable fields.
func (d *DB) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	query := `
		UPDATE announcements SET title = $2, body = $3, link_url = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING published_at, created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query, a.ID, a.Title, a.Body, a.LinkURL, a.IsActive).
		Scan(&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAnnouncementNotFound
	}
	return err
}

// ToggleAnnouncement flips the active flag and returns the updated row.
func (d *DB) ToggleAnnouncement(ctx context.Context, id uuid.UUID) (*models.Announcement, error) {
	query := `
		UPDATE announcements SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + announcementColumns
	return scanAnnouncement(d.Pool.QueryRow(ctx, query, id))
}

// DeleteAnnouncement removes an announcement.
func (d *DB) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

// ListAnnouncements returns announcements newest first. activeOnly hides
// inactive and not-yet-published rows.
func (d *DB) ListAnnouncements(ctx context.Context, activeOnly bool) ([]models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements`
	if activeOnly {
		query += ` WHERE is_active = TRUE AND published_at <= NOW()`
	}
	query += ` ORDER BY published_at DESC`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := []models.Announcement{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, *a)
	}

	return announcements, rows.Err()
}

const eventColumns = `id, title, description, location, starts_at, ends_at, registration_url,
	image_url, is_featured, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt,
		&e.RegistrationURL, &e.ImageURL, &e.IsFeatured, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent inserts a new event.
func (d *DB) CreateEvent(ctx context.Context, e *models.Event) error {
	query := `
		INSERT INTO events (title, description, location, starts_at, ends_at, registration_url, image_url, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return d.Pool.QueryRow(ctx, query,
		e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.RegistrationURL, e.ImageURL, e.IsFeatured,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetEvent retrieves an event by ID.
func (d *DB) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(d.Pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// UpdateEvent replaces an event's editable fields.
func (d *DB) UpdateEvent(ctx context.Context, e *models.Event) error {
	query := `
		UPDATE events SET
			title = $2, description = $3, location = $4, starts_at = $5, ends_at = $6,
			registration_url = $7, image_url = $8, is_featured = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		e.ID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.RegistrationURL, e.ImageURL, e.IsFeatured,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEventNotFound
	}
	return err
}

// DeleteEvent removes an event.
func (d *DB) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ListEvents returns events ordered by start time. A non-zero from hides
// events that ended (or, without an end, started) before it.
func (d *DB) ListEvents(ctx context.Context, from time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var args []any
	if !from.IsZero() {
		query += ` WHERE COALESCE(ends_at, starts_at) >= $1`
		args = append(args, from)
	}
	query += ` ORDER BY starts_at ASC`

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}

	return events, rows.Err()
}
