package db

import (
	"context"
	"time"

	"top100/internal/models"
)

// Now returns the database clock. Change feed cursors start from it so they
// compare against the same clock that stamps updated_at.
func (d *DB) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	err := d.Pool.QueryRow(ctx, `SELECT NOW()`).Scan(&now)
	return now, err
}

// ChangesAfter returns records of every change-feed kind positioned after
// cursor, ordered by (updated_at, kind, id). Deletions are not visible here;
// they are only published in-process.
func (d *DB) ChangesAfter(ctx context.Context, after models.ChangeCursor, limit int) ([]models.Change, error) {
	query := `
		SELECT kind, id, CASE WHEN created_at = updated_at THEN 'created' ELSE 'updated' END, updated_at
		FROM (
			SELECT 'awardee' AS kind, id, created_at, updated_at FROM awardees WHERE updated_at >= $1
			UNION ALL
			SELECT 'feature_request', id, created_at, updated_at FROM feature_requests WHERE updated_at >= $1
			UNION ALL
			SELECT 'announcement', id, created_at, updated_at FROM announcements WHERE updated_at >= $1
			UNION ALL
			SELECT 'event', id, created_at, updated_at FROM events WHERE updated_at >= $1
		) AS c
		WHERE (updated_at, kind, id) > ($1::timestamptz, $2::text, $3::uuid)
		ORDER BY updated_at, kind, id
		LIMIT $4
	`

	rows, err := d.Pool.Query(ctx, query, after.UpdatedAt, after.Kind, after.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []models.Change
	for rows.Next() {
		var c models.Change
		if err := rows.Scan(&c.Kind, &c.ID, &c.Action, &c.UpdatedAt); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}

	return changes, rows.Err()
}
