package handlers

import (
	"context"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"top100/internal/db"
	"top100/internal/models"
	"top100/internal/storage"
)

// fakeStore is an in-memory awardee and feature request store.
type fakeStore struct {
	mu       sync.Mutex
	awardees map[uuid.UUID]*models.Awardee
	requests []*models.FeatureRequest
	saveErr  error
}

func newFakeStore(awardees ...*models.Awardee) *fakeStore {
	s := &fakeStore{awardees: map[uuid.UUID]*models.Awardee{}}
	for _, a := range awardees {
		s.awardees[a.ID] = a
	}
	return s
}

func (s *fakeStore) GetAwardeeByID(_ context.Context, id uuid.UUID) (*models.Awardee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.awardees[id]
	if !ok {
		return nil, db.ErrAwardeeNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) GetAwardeeEmail(ctx context.Context, id uuid.UUID) (string, error) {
	a, err := s.GetAwardeeByID(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Email, nil
}

func (s *fakeStore) GetAwardeeBySlug(_ context.Context, slug string) (*models.Awardee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.awardees {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, db.ErrAwardeeNotFound
}

func (s *fakeStore) UpdateAwardeeProfile(_ context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Awardee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	a, ok := s.awardees[id]
	if !ok {
		return nil, db.ErrAwardeeNotFound
	}
	a.Headline, a.Tagline, a.Bio = u.Headline, u.Tagline, u.Bio
	a.AvatarURL, a.SocialLinks, a.LinkedinPostURL = u.AvatarURL, u.SocialLinks, u.LinkedinPostURL
	a.IsPublic = a.IsPublic || u.Publish
	cp := *a
	return &cp, nil
}

func (s *fakeStore) CreateFeatureRequest(_ context.Context, fr *models.FeatureRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fr.ID = uuid.New()
	fr.CreatedAt = time.Now()
	fr.UpdatedAt = fr.CreatedAt
	s.requests = append(s.requests, fr)
	return nil
}

func (s *fakeStore) ListAwardees(_ context.Context, f models.AwardeeFilter) (*models.AwardeePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := &models.AwardeePage{Awardees: []models.Awardee{}, Limit: f.Limit, Offset: f.Offset}
	for _, a := range s.awardees {
		if f.PublicOnly && !a.IsPublic {
			continue
		}
		if f.Country != "" && a.Country != f.Country {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(a.Name), strings.ToLower(f.Query)) {
			continue
		}
		page.Awardees = append(page.Awardees, *a)
	}
	page.Total = len(page.Awardees)
	return page, nil
}

func (s *fakeStore) RandomPublicAwardees(ctx context.Context, n int) ([]models.Awardee, error) {
	page, _ := s.ListAwardees(ctx, models.AwardeeFilter{PublicOnly: true})
	if len(page.Awardees) > n {
		return page.Awardees[:n], nil
	}
	return page.Awardees, nil
}

func (s *fakeStore) ListAnnouncements(context.Context, bool) ([]models.Announcement, error) {
	return []models.Announcement{}, nil
}

func (s *fakeStore) ListEvents(context.Context, time.Time) ([]models.Event, error) {
	return []models.Event{}, nil
}

// fakeImages accepts every upload.
type fakeImages struct {
	mu       sync.Mutex
	uploaded []string
	attached []string
	err      error
}

func (f *fakeImages) Upload(_ context.Context, owner uuid.UUID, img storage.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, img.Body); err != nil {
		return "", err
	}
	url := "/uploads/avatars/" + owner.String() + "/" + img.Filename
	f.mu.Lock()
	f.uploaded = append(f.uploaded, url)
	f.mu.Unlock()
	return url, nil
}

// IsPending accepts URLs this fake issued that no save has attached.
func (f *fakeImages) IsPending(_ context.Context, _ uuid.UUID, url string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.uploaded, url) && !slices.Contains(f.attached, url), nil
}

func (f *fakeImages) Attach(_ context.Context, _ uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached = append(f.attached, url)
	return nil
}

func (f *fakeImages) ReportOrphan(context.Context, uuid.UUID, string) error { return nil }

type recordingPublisher struct {
	mu      sync.Mutex
	changes []models.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c models.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.changes {
		out = append(out, c.Kind+":"+c.Action)
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	requests []*models.FeatureRequest
}

func (n *recordingNotifier) NotifyFeatureRequestCreated(_ context.Context, fr *models.FeatureRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, fr)
}

func newSessionApp() *fiber.App {
	app := fiber.New()
	sessionMiddleware, _ := session.NewWithStore()
	app.Use(sessionMiddleware)
	return app
}

// client replays cookies across requests like a browser.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{t: t, app: app, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	resp, err := c.app.Test(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	for _, ck := range resp.Cookies() {
		c.cookies[ck.Name] = ck
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (c *client) json(method, path, body string) (*http.Response, string) {
	c.t.Helper()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}
