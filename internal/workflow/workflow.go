// Package workflow drives the self-service edit of an awardee profile and the
// optional feature request that follows a successful save.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"top100/internal/models"
	"top100/internal/storage"
	"top100/internal/verification"
)

// Workflow errors.
var (
	ErrNotVerified      = errors.New("profile edits require email verification")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrNotSaved         = errors.New("profile has not been saved")
	ErrAlreadySaved     = errors.New("profile already saved")
	ErrSaveFailed       = errors.New("profile save failed")
	ErrSubmitFailed     = errors.New("feature request submission failed")
	ErrVerifyFailed     = errors.New("verification could not be completed")
)

// ValidationError is an input problem reported to the user before any
// collaborator is called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Verifier checks a claimed email for an awardee.
type Verifier interface {
	Verify(ctx context.Context, awardeeID uuid.UUID, claimedEmail string) (verification.Result, error)
}

// ProfileStore persists the self-service profile fields.
type ProfileStore interface {
	UpdateAwardeeProfile(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Awardee, error)
}

// ImageUploader stores avatar images and tracks whether a save adopted them.
type ImageUploader interface {
	Upload(ctx context.Context, ownerID uuid.UUID, img storage.Image) (string, error)
	IsPending(ctx context.Context, ownerID uuid.UUID, url string) (bool, error)
	Attach(ctx context.Context, ownerID uuid.UUID, url string) error
	ReportOrphan(ctx context.Context, ownerID uuid.UUID, url string) error
}

// FeatureRequestStore persists feature requests.
type FeatureRequestStore interface {
	CreateFeatureRequest(ctx context.Context, fr *models.FeatureRequest) error
}

// Config holds workflow tunables.
type Config struct {
	// Timeout bounds each collaborator call. Zero disables the bound.
	Timeout time.Duration
	// SaveRetries is how many extra times a save is attempted after a
	// successful image upload.
	SaveRetries int
	// PublishOnSave makes the profile public on a successful save.
	PublishOnSave bool
	// MaxImageBytes bounds avatar uploads.
	MaxImageBytes int64
	// SocialPlatforms lists accepted social link keys.
	SocialPlatforms []string
	// Amount and Currency price a feature request.
	Amount   int64
	Currency string
	// ProfileURL returns the public URL of a profile slug.
	ProfileURL func(slug string) string
}

// Workflow holds the collaborators shared by every edit session.
type Workflow struct {
	verifier Verifier
	profiles ProfileStore
	uploader ImageUploader
	requests FeatureRequestStore
	cfg      Config
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[slot]struct{}
}

// slot identifies one in-flight submission kind for one awardee.
type slot struct {
	kind string
	id   uuid.UUID
}

const (
	slotSave    = "save"
	slotFeature = "feature"
)

// New creates a Workflow.
func New(verifier Verifier, profiles ProfileStore, uploader ImageUploader, requests FeatureRequestStore, cfg Config, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProfileURL == nil {
		cfg.ProfileURL = func(slug string) string { return "/awardees/" + slug }
	}
	return &Workflow{
		verifier: verifier,
		profiles: profiles,
		uploader: uploader,
		requests: requests,
		cfg:      cfg,
		logger:   logger,
		inflight: make(map[slot]struct{}),
	}
}

// Begin starts an edit session for profile in the Unverified state.
func (w *Workflow) Begin(profile *models.Awardee) *ProfileEdit {
	return &ProfileEdit{w: w, profile: profile, state: StateUnverified}
}

// Resume starts an edit session for a profile whose owner was already
// verified, for example earlier in the same HTTP session.
func (w *Workflow) Resume(profile *models.Awardee) *ProfileEdit {
	return &ProfileEdit{w: w, profile: profile, state: StateEditing}
}

// FeatureFlow returns the feature request step for a saved profile.
func (w *Workflow) FeatureFlow(profile *models.Awardee) *FeatureFlow {
	return &FeatureFlow{w: w, awardeeID: profile.ID, name: profile.Name, slug: profile.Slug}
}

func (w *Workflow) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.cfg.Timeout)
}

// acquire claims the per-awardee submission slot of the given kind. It is
// shared by every session of the Workflow, so concurrent HTTP requests for
// the same awardee are serialized.
func (w *Workflow) acquire(kind string, id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := slot{kind: kind, id: id}
	if _, busy := w.inflight[key]; busy {
		return false
	}
	w.inflight[key] = struct{}{}
	return true
}

func (w *Workflow) release(kind string, id uuid.UUID) {
	w.mu.Lock()
	delete(w.inflight, slot{kind: kind, id: id})
	w.mu.Unlock()
}

func wrap(sentinel, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}
