package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeatureStatus is the service lifecycle of a feature request.
type FeatureStatus string

// Feature request lifecycle states.
const (
	FeaturePending    FeatureStatus = "pending"
	FeatureContacted  FeatureStatus = "contacted"
	FeaturePaid       FeatureStatus = "paid"
	FeatureInProgress FeatureStatus = "in_progress"
	FeaturePublished  FeatureStatus = "published"
	FeatureCancelled  FeatureStatus = "cancelled"
)

// FeatureStatuses lists every lifecycle state in order.
var FeatureStatuses = []FeatureStatus{
	FeaturePending,
	FeatureContacted,
	FeaturePaid,
	FeatureInProgress,
	FeaturePublished,
	FeatureCancelled,
}

// ParseFeatureStatus converts a string into a FeatureStatus.
func ParseFeatureStatus(s string) (FeatureStatus, error) {
	st := FeatureStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid feature request status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s FeatureStatus) Valid() bool {
	switch s {
	case FeaturePending, FeatureContacted, FeaturePaid, FeatureInProgress, FeaturePublished, FeatureCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s FeatureStatus) IsTerminal() bool {
	return s == FeaturePublished || s == FeatureCancelled
}

// CanTransitionTo reports whether an admin may move a request from s to next.
func (s FeatureStatus) CanTransitionTo(next FeatureStatus) bool {
	if next == FeatureCancelled {
		return !s.IsTerminal()
	}
	switch s {
	case FeaturePending:
		return next == FeatureContacted
	case FeatureContacted:
		return next == FeaturePaid
	case FeaturePaid:
		return next == FeatureInProgress
	case FeatureInProgress:
		return next == FeaturePublished
	case FeaturePublished, FeatureCancelled:
		return false
	}
	panic(fmt.Sprintf("unhandled feature status %q", s))
}

// PaymentStatus is the payment axis of a feature request, independent of FeatureStatus.
type PaymentStatus string

// Payment states.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// ParsePaymentStatus converts a string into a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	st := PaymentStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid payment status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentConfirmed, PaymentRefunded:
		return true
	}
	return false
}

// CanSetPayment reports whether the payment status may move from current
// (nil when never set) to next.
func CanSetPayment(current *PaymentStatus, next PaymentStatus) bool {
	if current == nil {
		return next == PaymentPending || next == PaymentConfirmed
	}
	switch *current {
	case PaymentPending:
		return next == PaymentConfirmed
	case PaymentConfirmed:
		return next == PaymentRefunded
	case PaymentRefunded:
		return false
	}
	panic(fmt.Sprintf("unhandled payment status %q", *current))
}

// FeatureRequest is a paid media placement request submitted by an awardee.
type FeatureRequest struct {
	ID                  uuid.UUID      `json:"id"`
	AwardeeID           *uuid.UUID     `json:"awardee_id"`
	AwardeeName         string         `json:"awardee_name"`
	HasOwnArticle       bool           `json:"has_own_article"`
	ArticleContent      *string        `json:"article_content"`
	NeedsArticleWritten bool           `json:"needs_article_written"`
	ContactEmail        string         `json:"contact_email"`
	WhatsappNumber      string         `json:"whatsapp_number"`
	Amount              int64          `json:"amount"`
	Currency            string         `json:"currency"`
	Status              FeatureStatus  `json:"status"`
	PaymentStatus       *PaymentStatus `json:"payment_status"`
	AdminNotes          string         `json:"admin_notes"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// FeatureRequestFilter narrows admin listings.
type FeatureRequestFilter struct {
	Status       FeatureStatus // Empty matches all
	UpdatedSince *time.Time
	Limit        int
	Offset       int
}

// StatusCount is the number of requests in one lifecycle state.
type StatusCount struct {
	Status FeatureStatus
	Count  int64
}
