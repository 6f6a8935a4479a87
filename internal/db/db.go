package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"top100/internal/models"
	"top100/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// SeedDevData inserts sample awardees for development. Skips rows that already exist.
func (d *DB) SeedDevData(ctx context.Context) error {
	awardees := []struct {
		slug    string
		name    string
		email   string
		country string
		year    int
	}{
		{"amara-okafor", "Amara Okafor", "amara@example.com", "Nigeria", 2024},
		{"kwame-mensah", "Kwame Mensah", "kwame@example.com", "Ghana", 2024},
		{"zaina-hassan", "Zaina Hassan", "zaina@example.com", "Kenya", 2023},
		{"thabo-ndlovu", "Thabo Ndlovu", "thabo@example.com", "South Africa", 2023},
	}

	query := `
		INSERT INTO awardees (slug, name, email, country, cohort_year, is_public)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (slug) DO NOTHING
	`

	for _, a := range awardees {
		if _, err := d.Pool.Exec(ctx, query, a.slug, a.name, a.email, a.country, a.year); err != nil {
			return fmt.Errorf("failed to seed awardee %s: %w", a.slug, err)
		}
	}

	announcement := &models.Announcement{
		Title:    "Nominations are open",
		Body:     "Nominate an outstanding young African leader for the next cohort.",
		IsActive: true,
	}
	var exists bool
	if err := d.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM announcements WHERE title = $1)`, announcement.Title).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check seed announcement: %w", err)
	}
	if !exists {
		if err := d.CreateAnnouncement(ctx, announcement); err != nil {
			return fmt.Errorf("failed to seed announcement: %w", err)
		}
	}

	return nil
}
