package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"top100/internal/models"
)

const featureRequestColumns = `id, awardee_id, awardee_name, has_own_article, article_content,
	needs_article_written, contact_email, whatsapp_number, amount, currency,
	status, payment_status, admin_notes, created_at, updated_at`

func scanFeatureRequest(row pgx.Row) (*models.FeatureRequest, error) {
	var fr models.FeatureRequest
	var status string
	var payment *string
	err := row.Scan(
		&fr.ID,
		&fr.AwardeeID,
		&fr.AwardeeName,
		&fr.HasOwnArticle,
		&fr.ArticleContent,
		&fr.NeedsArticleWritten,
		&fr.ContactEmail,
		&fr.WhatsappNumber,
		&fr.Amount,
		&fr.Currency,
		&status,
		&payment,
		&fr.AdminNotes,
		&fr.CreatedAt,
		&fr.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFeatureRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	fr.Status = models.FeatureStatus(status)
	if payment != nil {
		ps := models.PaymentStatus(*payment)
		fr.PaymentStatus = &ps
	}
	return &fr, nil
}

// CreateFeatureRequest inserts a new request. Status defaults to pending and
// payment status to NULL when unset.
func (d *DB) CreateFeatureRequest(ctx context.Context, fr *models.FeatureRequest) error {
	if fr.Status == "" {
		fr.Status = models.FeaturePending
	}

	var payment any
	if fr.PaymentStatus != nil {
		payment = string(*fr.PaymentStatus)
	}

	query := `
		INSERT INTO feature_requests (awardee_id, awardee_name, has_own_article, article_content,
			needs_article_written, contact_email, whatsapp_number, amount, currency,
			status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	return d.Pool.QueryRow(ctx, query,
		fr.AwardeeID,
		fr.AwardeeName,
		fr.HasOwnArticle,
		fr.ArticleContent,
		fr.NeedsArticleWritten,
		fr.ContactEmail,
		fr.WhatsappNumber,
		fr.Amount,
		fr.Currency,
		string(fr.Status),
		payment,
	).Scan(&fr.ID, &fr.CreatedAt, &fr.UpdatedAt)
}

// GetFeatureRequest retrieves a feature request by ID.
func (d *DB) GetFeatureRequest(ctx context.Context, id uuid.UUID) (*models.FeatureRequest, error) {
	query := `SELECT ` + featureRequestColumns + ` FROM feature_requests WHERE id = $1`
	return scanFeatureRequest(d.Pool.QueryRow(ctx, query, id))
}

// ListFeatureRequests returns requests matching the filter, newest first.
func (d *DB) ListFeatureRequests(ctx context.Context, f models.FeatureRequestFilter) ([]models.FeatureRequest, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.UpdatedSince != nil {
		where = append(where, "updated_at > "+arg(*f.UpdatedSince))
	}

	query := `SELECT ` + featureRequestColumns + ` FROM feature_requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC LIMIT ` + arg(clampLimit(f.Limit)) + ` OFFSET ` + arg(max(f.Offset, 0))

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.FeatureRequest{}
	for rows.Next() {
		fr, err := scanFeatureRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *fr)
	}

	return requests, rows.Err()
}

// UpdateFeatureRequestStatus moves a request to next, enforcing the lifecycle
// rules under a row lock. notes replaces the admin notes when non-nil.
func (d *DB) UpdateFeatureRequestStatus(ctx context.Context, id uuid.UUID, next models.FeatureStatus, notes *string) (*models.FeatureRequest, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM feature_requests WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFeatureRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	if !models.FeatureStatus(current).CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	query := `
		UPDATE feature_requests SET
			status = $2, admin_notes = COALESCE($3, admin_notes), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + featureRequestColumns

	fr, err := scanFeatureRequest(tx.QueryRow(ctx, query, id, string(next), notes))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return fr, nil
}

// UpdateFeatureRequestPayment sets the payment status, enforcing payment rules.
func (d *DB) UpdateFeatureRequestPayment(ctx context.Context, id uuid.UUID, next models.PaymentStatus) (*models.FeatureRequest, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current *string
	err = tx.QueryRow(ctx, `SELECT payment_status FROM feature_requests WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFeatureRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	var cur *models.PaymentStatus
	if current != nil {
		ps := models.PaymentStatus(*current)
		cur = &ps
	}
	if !models.CanSetPayment(cur, next) {
		from := "none"
		if current != nil {
			from = *current
		}
		return nil, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, from, next)
	}

	query := `
		UPDATE feature_requests SET payment_status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + featureRequestColumns

	fr, err := scanFeatureRequest(tx.QueryRow(ctx, query, id, string(next)))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return fr, nil
}

// DeleteFeatureRequest removes a request.
func (d *DB) DeleteFeatureRequest(ctx context.Context, id uuid.UUID) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM feature_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFeatureRequestNotFound
	}
	return nil
}

// CountFeatureRequestsByStatus returns the number of requests in each state.
// States with no requests are omitted.
func (d *DB) CountFeatureRequestsByStatus(ctx context.Context) ([]models.StatusCount, error) {
	rows, err := d.Pool.Query(ctx, `SELECT status, COUNT(*) FROM feature_requests GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.StatusCount
	for rows.Next() {
		var status string
		var c models.StatusCount
		if err := rows.Scan(&status, &c.Count); err != nil {
			return nil, err
		}
		c.Status = models.FeatureStatus(status)
		counts = append(counts, c)
	}

	return counts, rows.Err()
}
