// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"top100/internal/db"
	"top100/internal/models"
)

// TestDB connects to TEST_DATABASE_URL, applies migrations and returns a
// cleanup function. The test is skipped when the variable is unset.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupTestData(ctx, database.Pool)
	cleanup := func() {
		cleanupTestData(ctx, database.Pool)
		database.Close()
	}

	return database, cleanup
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, pool *pgxpool.Pool) {
	// Delete in order to respect foreign keys
	pool.Exec(ctx, "DELETE FROM feature_requests")
	pool.Exec(ctx, "DELETE FROM uploads")
	pool.Exec(ctx, "DELETE FROM awardees")
	pool.Exec(ctx, "DELETE FROM announcements")
	pool.Exec(ctx, "DELETE FROM events")
	pool.Exec(ctx, "DELETE FROM users")
}

// CreateTestAwardee inserts a hidden awardee and returns it.
func CreateTestAwardee(t *testing.T, database *db.DB, slug, name, email string) *models.Awardee {
	t.Helper()

	a := &models.Awardee{Slug: slug, Name: name, Email: email, Country: "Ghana", CohortYear: 2024}
	if err := database.CreateAwardee(context.Background(), a); err != nil {
		t.Fatalf("failed to create test awardee: %v", err)
	}
	return a
}

// CreateTestUser creates an admin console user and returns it.
func CreateTestUser(t *testing.T, database *db.DB, sub, email, role string) *models.User {
	t.Helper()

	u := &models.User{Sub: sub, Email: email, Name: "Test User " + sub, Role: role}
	if err := database.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}
