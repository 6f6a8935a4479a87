package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"top100/internal/db"
	"top100/internal/models"
	"top100/internal/storage"
	"top100/internal/verification"
)

type spyVerifier struct {
	emails map[uuid.UUID]string
	policy verification.Policy
	err    error
	calls  int
}

func (s *spyVerifier) Verify(ctx context.Context, id uuid.UUID, claimed string) (verification.Result, error) {
	s.calls++
	if s.err != nil {
		return verification.NotVerified, s.err
	}
	return verification.NewGate(s, s.policy).Verify(ctx, id, claimed)
}

func (s *spyVerifier) GetAwardeeEmail(_ context.Context, id uuid.UUID) (string, error) {
	email, ok := s.emails[id]
	if !ok {
		return "", db.ErrAwardeeNotFound
	}
	return email, nil
}

type spyProfiles struct {
	mu      sync.Mutex
	updates []models.ProfileUpdate
	// failures is the number of leading calls that fail with err.
	failures int
	err      error
	block    chan struct{}
	entered  chan struct{}
	base     models.Awardee
}

func (s *spyProfiles) UpdateAwardeeProfile(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Awardee, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
	if len(s.updates) <= s.failures {
		return nil, s.err
	}

	saved := s.base
	saved.ID = id
	saved.Headline = u.Headline
	saved.Tagline = u.Tagline
	saved.Bio = u.Bio
	saved.AvatarURL = u.AvatarURL
	saved.SocialLinks = u.SocialLinks
	saved.LinkedinPostURL = u.LinkedinPostURL
	saved.IsPublic = saved.IsPublic || u.Publish
	return &saved, nil
}

func (s *spyProfiles) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

type spyUploader struct {
	url      string
	err      error
	uploads  int
	attached []string
	orphaned []string
	// pending lists URLs IsPending accepts.
	pending    []string
	pendingErr error
}

func (s *spyUploader) IsPending(_ context.Context, _ uuid.UUID, url string) (bool, error) {
	if s.pendingErr != nil {
		return false, s.pendingErr
	}
	return slices.Contains(s.pending, url), nil
}

func (s *spyUploader) Upload(_ context.Context, _ uuid.UUID, img storage.Image) (string, error) {
	s.uploads++
	if s.err != nil {
		return "", s.err
	}
	_, _ = io.Copy(io.Discard, img.Body)
	return s.url, nil
}

func (s *spyUploader) Attach(_ context.Context, _ uuid.UUID, url string) error {
	s.attached = append(s.attached, url)
	return nil
}

func (s *spyUploader) ReportOrphan(_ context.Context, _ uuid.UUID, url string) error {
	s.orphaned = append(s.orphaned, url)
	return nil
}

type spyRequests struct {
	mu      sync.Mutex
	created []*models.FeatureRequest
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (s *spyRequests) CreateFeatureRequest(_ context.Context, fr *models.FeatureRequest) error {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	fr.ID = uuid.New()
	s.created = append(s.created, fr)
	return nil
}

func (s *spyRequests) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

var errBackend = errors.New("backend unavailable")

type fixture struct {
	verifier *spyVerifier
	profiles *spyProfiles
	uploader *spyUploader
	requests *spyRequests
	profile  *models.Awardee
	wf       *Workflow
}

func strPtr(s string) *string { return &s }

func newFixture(mutate ...func(*Config)) *fixture {
	profile := &models.Awardee{
		ID:        uuid.New(),
		Slug:      "jane-doe",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		AvatarURL: strPtr("https://cdn/old.png"),
	}

	cfg := Config{
		SaveRetries:     1,
		PublishOnSave:   true,
		MaxImageBytes:   5 * 1024 * 1024,
		SocialPlatforms: []string{"linkedin", "twitter", "instagram", "website"},
		Amount:          50000,
		Currency:        "USD",
		ProfileURL:      func(slug string) string { return "https://top100.example.com/awardees/" + slug },
	}
	for _, m := range mutate {
		m(&cfg)
	}

	f := &fixture{
		verifier: &spyVerifier{emails: map[uuid.UUID]string{profile.ID: profile.Email}},
		profiles: &spyProfiles{base: *profile},
		uploader: &spyUploader{url: "https://cdn/new.png"},
		requests: &spyRequests{},
		profile:  profile,
	}
	f.wf = New(f.verifier, f.profiles, f.uploader, f.requests, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func pngImage(size int) *storage.Image {
	return &storage.Image{Filename: "me.png", ContentType: "image/png", Size: int64(size), Body: strings.NewReader(strings.Repeat("x", size))}
}
