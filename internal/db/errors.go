package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level database error sentinels.
var (
	// Awardee errors
	ErrAwardeeNotFound = errors.New("awardee not found")
	ErrDuplicateSlug   = errors.New("slug already exists")

	// Feature request errors
	ErrFeatureRequestNotFound = errors.New("feature request not found")
	ErrInvalidTransition      = errors.New("status transition not allowed")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Upload errors
	ErrUploadNotFound = errors.New("upload not found")

	// Content errors
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrEventNotFound        = errors.New("event not found")
)

// isUniqueViolation reports whether err is a Postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
