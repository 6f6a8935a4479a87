package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"top100/internal/db"
	"top100/internal/models"
	"top100/internal/storage"
	"top100/internal/validation"
	"top100/internal/verification"
)

// State is a stage of a profile edit session.
type State int

// Edit session states.
const (
	StateUnverified State = iota
	StateEditing
	StateSubmitting
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateUnverified:
		return "unverified"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSaved:
		return "saved"
	}
	panic(fmt.Sprintf("unhandled edit state %d", int(s)))
}

// AvatarWarning is reported when a new image could not be uploaded and the
// previous avatar was kept.
const AvatarWarning = "Your new photo could not be uploaded, so your previous photo was kept."

// Changes is one submission of the edit form. Empty strings clear a field.
type Changes struct {
	Headline        string
	Tagline         string
	Bio             string
	SocialLinks     map[string]string
	LinkedinPostURL string
	Image           *storage.Image
	// AvatarURL adopts an image stored earlier through the upload endpoint.
	// It must name one of the owner's pending uploads and is ignored when
	// Image is set.
	AvatarURL string
}

// SaveResult is the outcome of a successful save.
type SaveResult struct {
	Profile       *models.Awardee
	AvatarWarning string
}

// ProfileEdit is one owner's edit session for one profile. It is safe for
// concurrent use. A second Save for the same awardee while one is running is
// rejected, even from another session.
type ProfileEdit struct {
	w *Workflow

	mu      sync.Mutex
	profile *models.Awardee
	state   State
}

// State returns the current state.
func (e *ProfileEdit) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Profile returns the last loaded or saved profile.
func (e *ProfileEdit) Profile() *models.Awardee {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// Verify runs the verification gate and unlocks editing on success. A
// mismatch returns a NotVerified result with a nil error.
func (e *ProfileEdit) Verify(ctx context.Context, claimedEmail string) (verification.Result, error) {
	e.mu.Lock()
	id := e.profile.ID
	e.mu.Unlock()

	ctx, cancel := e.w.bounded(ctx)
	defer cancel()

	res, err := e.w.verifier.Verify(ctx, id, claimedEmail)
	if err != nil {
		return verification.NotVerified, wrap(ErrVerifyFailed, err)
	}

	if res.Verified {
		e.mu.Lock()
		if e.state == StateUnverified {
			e.state = StateEditing
		}
		e.mu.Unlock()
	}
	return res, nil
}

// Save validates changes, uploads a new image if one was chosen, then
// persists the profile. Saves are only accepted in the Editing state.
func (e *ProfileEdit) Save(ctx context.Context, changes Changes) (*SaveResult, error) {
	e.mu.Lock()
	switch e.state {
	case StateSubmitting:
		e.mu.Unlock()
		return nil, ErrSubmitInProgress
	case StateEditing:
	case StateUnverified:
		e.mu.Unlock()
		return nil, ErrNotVerified
	case StateSaved:
		e.mu.Unlock()
		return nil, ErrAlreadySaved
	}
	current := e.profile
	e.mu.Unlock()

	update, err := e.w.normalize(changes)
	if err != nil {
		return nil, err
	}

	if !e.w.acquire(slotSave, current.ID) {
		return nil, ErrSubmitInProgress
	}
	defer e.w.release(slotSave, current.ID)

	e.mu.Lock()
	if e.state != StateEditing {
		e.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	e.state = StateSubmitting
	e.mu.Unlock()

	saved, warning, err := e.w.save(ctx, current, update, changes)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateEditing
		return nil, err
	}
	e.profile = saved
	e.state = StateSaved
	return &SaveResult{Profile: saved, AvatarWarning: warning}, nil
}

// FeatureStep returns the feature request step bound to the saved profile.
func (e *ProfileEdit) FeatureStep() (*FeatureFlow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateSaved {
		return nil, ErrNotSaved
	}
	return e.w.FeatureFlow(e.profile), nil
}

// normalize turns form input into a ProfileUpdate, rejecting bad URLs and
// images. It never calls a collaborator.
func (w *Workflow) normalize(c Changes) (models.ProfileUpdate, error) {
	u := models.ProfileUpdate{
		Headline:        validation.Optional(c.Headline),
		Tagline:         validation.Optional(c.Tagline),
		Bio:             validation.Optional(c.Bio),
		LinkedinPostURL: validation.Optional(c.LinkedinPostURL),
		SocialLinks:     map[string]string{},
		Publish:         w.cfg.PublishOnSave,
	}

	if u.LinkedinPostURL != nil {
		if ok, msg := validation.ValidateURL(*u.LinkedinPostURL); !ok {
			return u, &ValidationError{Field: "linkedin_post_url", Message: "LinkedIn post: " + msg}
		}
	}

	for _, key := range slices.Sorted(maps.Keys(c.SocialLinks)) {
		value := validation.Optional(c.SocialLinks[key])
		if value == nil {
			continue
		}
		platform := strings.ToLower(strings.TrimSpace(key))
		if !slices.Contains(w.cfg.SocialPlatforms, platform) {
			return u, &ValidationError{Field: "social_links", Message: fmt.Sprintf("Unsupported social platform %q", key)}
		}
		if ok, msg := validation.ValidateURL(*value); !ok {
			return u, &ValidationError{Field: "social_links." + platform, Message: platform + ": " + msg}
		}
		u.SocialLinks[platform] = *value
	}

	if c.Image != nil {
		if ok, msg := validation.ValidateImage(c.Image.ContentType, c.Image.Size, w.cfg.MaxImageBytes); !ok {
			return u, &ValidationError{Field: "image", Message: msg}
		}
	}

	return u, nil
}

// save performs the upload-then-persist sequence.
func (w *Workflow) save(ctx context.Context, current *models.Awardee, update models.ProfileUpdate, changes Changes) (*models.Awardee, string, error) {
	update.AvatarURL = current.AvatarURL

	var uploaded, warning string
	switch {
	case changes.Image != nil:
		url, err := w.upload(ctx, current, *changes.Image)
		if err != nil {
			w.logger.Warn("avatar upload failed, keeping previous avatar",
				"awardee_id", current.ID, "error", err)
			warning = AvatarWarning
		} else {
			uploaded = url
			update.AvatarURL = &uploaded
		}
	case changes.AvatarURL != "" && !sameURL(current.AvatarURL, changes.AvatarURL):
		url, err := w.adopt(ctx, current, changes.AvatarURL)
		if err != nil {
			return nil, "", err
		}
		uploaded = url
		update.AvatarURL = &uploaded
	}

	attempts := 1
	if uploaded != "" {
		attempts += max(w.cfg.SaveRetries, 0)
	}

	var (
		saved *models.Awardee
		err   error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		saved, err = w.persist(ctx, current, update)
		if err == nil || errors.Is(err, db.ErrAwardeeNotFound) || ctx.Err() != nil {
			break
		}
		w.logger.Warn("profile save failed", "awardee_id", current.ID, "attempt", attempt, "error", err)
	}

	if err != nil {
		// An adopted upload stays pending so the owner can retry with it.
		if uploaded != "" && changes.Image != nil {
			w.reportOrphan(ctx, current, uploaded)
		}
		w.logger.Error("profile save failed", "awardee_id", current.ID, "error", err)
		return nil, "", wrap(ErrSaveFailed, err)
	}

	if uploaded != "" {
		actx, cancel := w.bounded(context.WithoutCancel(ctx))
		if err := w.uploader.Attach(actx, current.ID, uploaded); err != nil {
			w.logger.Warn("failed to mark upload attached", "awardee_id", current.ID, "url", uploaded, "error", err)
		}
		cancel()
	}

	return saved, warning, nil
}

func (w *Workflow) upload(ctx context.Context, current *models.Awardee, img storage.Image) (string, error) {
	ctx, cancel := w.bounded(ctx)
	defer cancel()
	return w.uploader.Upload(ctx, current.ID, img)
}

// adopt checks that url is a pending upload of the profile owner.
func (w *Workflow) adopt(ctx context.Context, current *models.Awardee, url string) (string, error) {
	ctx, cancel := w.bounded(ctx)
	defer cancel()
	ok, err := w.uploader.IsPending(ctx, current.ID, url)
	if err != nil {
		w.logger.Error("failed to look up upload", "awardee_id", current.ID, "url", url, "error", err)
		return "", wrap(ErrSaveFailed, err)
	}
	if !ok {
		return "", &ValidationError{Field: "avatar_url", Message: "Please upload your photo again"}
	}
	return url, nil
}

func sameURL(current *string, url string) bool {
	return current != nil && *current == url
}

func (w *Workflow) persist(ctx context.Context, current *models.Awardee, update models.ProfileUpdate) (*models.Awardee, error) {
	ctx, cancel := w.bounded(ctx)
	defer cancel()
	return w.profiles.UpdateAwardeeProfile(ctx, current.ID, update)
}

func (w *Workflow) reportOrphan(ctx context.Context, current *models.Awardee, url string) {
	ctx, cancel := w.bounded(context.WithoutCancel(ctx))
	defer cancel()
	if err := w.uploader.ReportOrphan(ctx, current.ID, url); err != nil {
		w.logger.Error("failed to report orphaned upload", "awardee_id", current.ID, "url", url, "error", err)
	}
}
