package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"top100/internal/models"
)

const awardeeColumns = `id, slug, name, email, headline, tagline, bio, avatar_url,
	social_links, linkedin_post_url, country, cohort_year, is_public, created_at, updated_at`

func scanAwardee(row pgx.Row) (*models.Awardee, error) {
	var a models.Awardee
	var social []byte
	err := row.Scan(
		&a.ID,
		&a.Slug,
		&a.Name,
		&a.Email,
		&a.Headline,
		&a.Tagline,
		&a.Bio,
		&a.AvatarURL,
		&social,
		&a.LinkedinPostURL,
		&a.Country,
		&a.CohortYear,
		&a.IsPublic,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAwardeeNotFound
	}
	if err != nil {
		return nil, err
	}
	a.SocialLinks = map[string]string{}
	if len(social) > 0 {
		if err := json.Unmarshal(social, &a.SocialLinks); err != nil {
			return nil, fmt.Errorf("failed to decode social links: %w", err)
		}
	}
	return &a, nil
}

func encodeSocialLinks(links map[string]string) ([]byte, error) {
	if links == nil {
		links = map[string]string{}
	}
	return json.Marshal(links)
}

// GetAwardeeByID retrieves an awardee by UUID.
func (d *DB) GetAwardeeByID(ctx context.Context, id uuid.UUID) (*models.Awardee, error) {
	query := `SELECT ` + awardeeColumns + ` FROM awardees WHERE id = $1`
	return scanAwardee(d.Pool.QueryRow(ctx, query, id))
}

// GetAwardeeBySlug retrieves an awardee by slug.
func (d *DB) GetAwardeeBySlug(ctx context.Context, slug string) (*models.Awardee, error) {
	query := `SELECT ` + awardeeColumns + ` FROM awardees WHERE slug = $1`
	return scanAwardee(d.Pool.QueryRow(ctx, query, slug))
}

// GetAwardeeEmail returns the stored verification email of an awardee.
func (d *DB) GetAwardeeEmail(ctx context.Context, id uuid.UUID) (string, error) {
	var email string
	err := d.Pool.QueryRow(ctx, `SELECT email FROM awardees WHERE id = $1`, id).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrAwardeeNotFound
	}
	return email, err
}

// ListAwardees returns a page of awardees matching the filter, ordered by name.
func (d *DB) ListAwardees(ctx context.Context, f models.AwardeeFilter) (*models.AwardeePage, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PublicOnly {
		where = append(where, "is_public = TRUE")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg(q)
		where = append(where, fmt.Sprintf(
			"(name ILIKE '%%' || %s || '%%' OR headline ILIKE '%%' || %s || '%%' OR country ILIKE '%%' || %s || '%%')", p, p, p))
	}
	if f.Country != "" {
		where = append(where, "country = "+arg(f.Country))
	}
	if f.CohortYear > 0 {
		where = append(where, "cohort_year = "+arg(f.CohortYear))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	page := &models.AwardeePage{
		Awardees: []models.Awardee{},
		Limit:    clampLimit(f.Limit),
		Offset:   max(f.Offset, 0),
	}

	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM awardees`+clause, args...).Scan(&page.Total); err != nil {
		return nil, err
	}

	query := `SELECT ` + awardeeColumns + ` FROM awardees` + clause +
		` ORDER BY name ASC LIMIT ` + arg(page.Limit) + ` OFFSET ` + arg(page.Offset)

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAwardee(rows)
		if err != nil {
			return nil, err
		}
		page.Awardees = append(page.Awardees, *a)
	}

	return page, rows.Err()
}

// RandomPublicAwardees returns up to n public awardees in random order.
func (d *DB) RandomPublicAwardees(ctx context.Context, n int) ([]models.Awardee, error) {
	query := `SELECT ` + awardeeColumns + ` FROM awardees WHERE is_public = TRUE ORDER BY random() LIMIT $1`

	rows, err := d.Pool.Query(ctx, query, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	awardees := []models.Awardee{}
	for rows.Next() {
		a, err := scanAwardee(rows)
		if err != nil {
			return nil, err
		}
		awardees = append(awardees, *a)
	}

	return awardees, rows.Err()
}

// CreateAwardee inserts a new awardee.
func (d *DB) CreateAwardee(ctx context.Context, a *models.Awardee) error {
	social, err := encodeSocialLinks(a.SocialLinks)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO awardees (slug, name, email, headline, tagline, bio, avatar_url,
			social_links, linkedin_post_url, country, cohort_year, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err = d.Pool.QueryRow(ctx, query,
		a.Slug, a.Name, a.Email, a.Headline, a.Tagline, a.Bio, a.AvatarURL,
		social, a.LinkedinPostURL, a.Country, a.CohortYear, a.IsPublic,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	return err
}

// UpdateAwardee replaces every admin-managed field of an awardee.
func (d *DB) UpdateAwardee(ctx context.Context, a *models.Awardee) error {
	social, err := encodeSocialLinks(a.SocialLinks)
	if err != nil {
		return err
	}

	query := `
		UPDATE awardees SET
			slug = $2, name = $3, email = $4, headline = $5, tagline = $6, bio = $7,
			avatar_url = $8, social_links = $9, linkedin_post_url = $10,
			country = $11, cohort_year = $12, is_public = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err = d.Pool.QueryRow(ctx, query,
		a.ID, a.Slug, a.Name, a.Email, a.Headline, a.Tagline, a.Bio, a.AvatarURL,
		social, a.LinkedinPostURL, a.Country, a.CohortYear, a.IsPublic,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAwardeeNotFound
	}
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	return err
}

// UpdateAwardeeProfile writes the self-service field set. When u.Publish is
// set the profile is also made public; otherwise visibility is untouched.
func (d *DB) UpdateAwardeeProfile(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Awardee, error) {
	social, err := encodeSocialLinks(u.SocialLinks)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE awardees SET
			headline = $2, tagline = $3, bio = $4, avatar_url = $5,
			social_links = $6, linkedin_post_url = $7,
			is_public = is_public OR $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + awardeeColumns

	return scanAwardee(d.Pool.QueryRow(ctx, query,
		id, u.Headline, u.Tagline, u.Bio, u.AvatarURL, social, u.LinkedinPostURL, u.Publish,
	))
}

// SetAwardeeVisibility publishes or hides an awardee profile.
func (d *DB) SetAwardeeVisibility(ctx context.Context, id uuid.UUID, public bool) error {
	tag, err := d.Pool.Exec(ctx,
		`UPDATE awardees SET is_public = $2, updated_at = NOW() WHERE id = $1`, id, public)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAwardeeNotFound
	}
	return nil
}

// DeleteAwardee removes an awardee. Feature requests keep their snapshot name.
func (d *DB) DeleteAwardee(ctx context.Context, id uuid.UUID) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM awardees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAwardeeNotFound
	}
	return nil
}

// CountAwardees returns the total and public awardee counts.
func (d *DB) CountAwardees(ctx context.Context) (total, public int, err error) {
	err = d.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_public) FROM awardees`).Scan(&total, &public)
	return total, public, err
}
