package models

import (
	"time"

	"github.com/google/uuid"
)

// Announcement is a short notice shown on the home page.
type Announcement struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	LinkURL     *string   `json:"link_url"`
	IsActive    bool      `json:"is_active"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is a program event such as a summit or award ceremony.
type Event struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	RegistrationURL *string    `json:"registration_url"`
	ImageURL        *string    `json:"image_url"`
	IsFeatured      bool       `json:"is_featured"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Upload states.
const (
	UploadPending  = "pending"
	UploadAttached = "attached"
	UploadOrphaned = "orphaned"
)

// Upload records an object written to storage on behalf of an owner.
type Upload struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ObjectKey   string    `json:"object_key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
}

// Change kinds published on the change feed.
const (
	ChangeAwardee        = "awardee"
	ChangeFeatureRequest = "feature_request"
	ChangeAnnouncement   = "announcement"
	ChangeEvent          = "event"
)

// Change describes a mutation of one record. Consumers refetch the record.
type Change struct {
	Kind      string    `json:"kind"`
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"` // created, updated, deleted
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeCursor is a position in the change feed ordered by
// (UpdatedAt, Kind, ID). Rows sharing a timestamp are told apart by kind and id.
type ChangeCursor struct {
	UpdatedAt time.Time
	Kind      string
	ID        uuid.UUID
}

// Cursor returns the feed position just at c.
func (c Change) Cursor() ChangeCursor {
	return ChangeCursor{UpdatedAt: c.UpdatedAt, Kind: c.Kind, ID: c.ID}
}
