package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"top100/internal/models"
)

func createTestFeatureRequest(t *testing.T, db *DB, awardee *models.Awardee) *models.FeatureRequest {
	t.Helper()
	fr := &models.FeatureRequest{
		AwardeeID:           &awardee.ID,
		AwardeeName:         awardee.Name,
		NeedsArticleWritten: true,
		ContactEmail:        "contact@example.com",
		WhatsappNumber:      "+254700000000",
		Amount:              50000,
		Currency:            "USD",
	}
	if err := db.CreateFeatureRequest(context.Background(), fr); err != nil {
		t.Fatalf("CreateFeatureRequest() error = %v", err)
	}
	return fr
}

func TestCreateFeatureRequest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	a := createTestAwardee(t, db, "featured", true)
	fr := createTestFeatureRequest(t, db, a)

	got, err := db.GetFeatureRequest(ctx, fr.ID)
	if err != nil {
		t.Fatalf("GetFeatureRequest() error = %v", err)
	}
	if got.Status != models.FeaturePending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.PaymentStatus != nil {
		t.Errorf("payment status = %q, want nil", *got.PaymentStatus)
	}
	if got.ArticleContent != nil {
		t.Errorf("article content = %q, want nil", *got.ArticleContent)
	}
	if got.Amount != 50000 || got.Currency != "USD" {
		t.Errorf("amount = %d %s, want 50000 USD", got.Amount, got.Currency)
	}

	if _, err := db.GetFeatureRequest(ctx, uuid.New()); err != ErrFeatureRequestNotFound {
		t.Errorf("GetFeatureRequest() error = %v, want ErrFeatureRequestNotFound", err)
	}
}

func TestUpdateFeatureRequestStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	a := createTestAwardee(t, db, "lifecycle", true)
	fr := createTestFeatureRequest(t, db, a)

	notes := "Called on WhatsApp"
	updated, err := db.UpdateFeatureRequestStatus(ctx, fr.ID, models.FeatureContacted, &notes)
	if err != nil {
		t.Fatalf("UpdateFeatureRequestStatus() error = %v", err)
	}
	if updated.Status != models.FeatureContacted || updated.AdminNotes != notes {
		t.Errorf("UpdateFeatureRequestStatus() = %q %q", updated.Status, updated.AdminNotes)
	}

	_, err = db.UpdateFeatureRequestStatus(ctx, fr.ID, models.FeaturePublished, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("UpdateFeatureRequestStatus() error = %v, want ErrInvalidTransition", err)
	}

	_, err = db.UpdateFeatureRequestStatus(ctx, uuid.New(), models.FeatureContacted, nil)
	if err != ErrFeatureRequestNotFound {
		t.Errorf("UpdateFeatureRequestStatus() error = %v, want ErrFeatureRequestNotFound", err)
	}
}

func TestUpdateFeatureRequestPayment(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	a := createTestAwardee(t, db, "payer", true)
	fr := createTestFeatureRequest(t, db, a)

	if _, err := db.UpdateFeatureRequestPayment(ctx, fr.ID, models.PaymentRefunded); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("refund before payment error = %v, want ErrInvalidTransition", err)
	}

	updated, err := db.UpdateFeatureRequestPayment(ctx, fr.ID, models.PaymentConfirmed)
	if err != nil {
		t.Fatalf("UpdateFeatureRequestPayment() error = %v", err)
	}
	if updated.PaymentStatus == nil || *updated.PaymentStatus != models.PaymentConfirmed {
		t.Errorf("payment status = %v, want confirmed", updated.PaymentStatus)
	}
}

func TestListAndCountFeatureRequests(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	a := createTestAwardee(t, db, "counted", true)
	first := createTestFeatureRequest(t, db, a)
	createTestFeatureRequest(t, db, a)

	if _, err := db.UpdateFeatureRequestStatus(ctx, first.ID, models.FeatureCancelled, nil); err != nil {
		t.Fatalf("UpdateFeatureRequestStatus() error = %v", err)
	}

	pending, err := db.ListFeatureRequests(ctx, models.FeatureRequestFilter{Status: models.FeaturePending})
	if err != nil {
		t.Fatalf("ListFeatureRequests() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("ListFeatureRequests(pending) len = %d, want 1", len(pending))
	}

	future := time.Now().Add(time.Hour)
	none, err := db.ListFeatureRequests(ctx, models.FeatureRequestFilter{UpdatedSince: &future})
	if err != nil {
		t.Fatalf("ListFeatureRequests() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListFeatureRequests(future) len = %d, want 0", len(none))
	}

	counts, err := db.CountFeatureRequestsByStatus(ctx)
	if err != nil {
		t.Fatalf("CountFeatureRequestsByStatus() error = %v", err)
	}
	byStatus := map[models.FeatureStatus]int64{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	if byStatus[models.FeaturePending] != 1 || byStatus[models.FeatureCancelled] != 1 {
		t.Errorf("CountFeatureRequestsByStatus() = %v", byStatus)
	}
}

func TestDeleteAwardee_KeepsFeatureRequest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	a := createTestAwardee(t, db, "leaver", true)
	fr := createTestFeatureRequest(t, db, a)

	if err := db.DeleteAwardee(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAwardee() error = %v", err)
	}

	got, err := db.GetFeatureRequest(ctx, fr.ID)
	if err != nil {
		t.Fatalf("GetFeatureRequest() error = %v", err)
	}
	if got.AwardeeID != nil {
		t.Errorf("awardee id = %v, want nil", got.AwardeeID)
	}
	if got.AwardeeName != a.Name {
		t.Errorf("awardee name = %q, want %q", got.AwardeeName, a.Name)
	}
}
