package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"top100/internal/middleware"
	"top100/internal/models"
	"top100/internal/storage"
)

type fakeUserLoader map[string]*models.User

func (f fakeUserLoader) GetUserBySub(_ context.Context, sub string) (*models.User, error) {
	if u, ok := f[sub]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

// withUploads adds the upload endpoint and a test login route to the
// self-service fixture.
func withUploads(f *selfServiceFixture) {
	auth := middleware.NewAuthMiddleware(fakeUserLoader{
		"editor-sub": {Sub: "editor-sub", Email: "editor@example.com", Role: models.RoleEditor},
		"viewer-sub": {Sub: "viewer-sub", Email: "viewer@example.com", Role: "viewer"},
	})
	f.app.Post("/test/login/:sub", func(c fiber.Ctx) error {
		session.FromContext(c).Set("user_sub", c.Params("sub"))
		return c.SendString("ok")
	})
	f.app.Post("/api/uploads", auth.LoadUser, NewUploadHandler(f.images, nil).Upload)
}

func (f *selfServiceFixture) upload(t *testing.T, c *client, owner string, image []byte) (*http.Response, string) {
	t.Helper()
	fields := map[string]string{}
	if owner != "" {
		fields["owner_id"] = owner
	}
	body, contentType := multipartBody(t, fields, "image/png", image)
	req, _ := http.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func TestUploadHandler_Upload(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")

	tests := []struct {
		name       string
		verify     bool
		loginAs    string
		owner      func(f *selfServiceFixture) string
		image      []byte
		imageErr   error
		wantStatus int
		wantField  string
	}{
		{"verified owner", true, "", ownerOf, png, nil, fiber.StatusCreated, ""},
		{"editor session", false, "editor-sub", ownerOf, png, nil, fiber.StatusCreated, ""},
		{"anonymous", false, "", ownerOf, png, nil, fiber.StatusForbidden, ""},
		{"non-editor user", false, "viewer-sub", ownerOf, png, nil, fiber.StatusForbidden, ""},
		{"verified for another profile", true, "", func(*selfServiceFixture) string { return "6f1d3c52-8b1e-4a57-9a43-2f0e7c7d2b11" }, png, nil, fiber.StatusForbidden, ""},
		{"missing owner", true, "", func(*selfServiceFixture) string { return "" }, png, nil, fiber.StatusBadRequest, ""},
		{"missing image", true, "", ownerOf, nil, nil, fiber.StatusBadRequest, ""},
		{"rejected image", true, "", ownerOf, png, &storage.InvalidImageError{Message: "Image must be 5 MB or smaller"}, fiber.StatusBadRequest, "image"},
		{"storage failure", true, "", ownerOf, png, errors.New("bucket unavailable"), fiber.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSelfServiceFixture(t)
			withUploads(f)
			f.images.err = tt.imageErr
			c := newClient(t, f.app)
			if tt.verify {
				require.True(t, verify(t, c, f, "amara@example.com").Verified)
			}
			if tt.loginAs != "" {
				c.json(http.MethodPost, "/test/login/"+tt.loginAs, "")
			}

			resp, body := f.upload(t, c, tt.owner(f), tt.image)
			require.Equal(t, tt.wantStatus, resp.StatusCode, body)

			env := decode(t, body)
			if tt.wantStatus != fiber.StatusCreated {
				assert.Equal(t, "error", env.Status)
				assert.Equal(t, tt.wantField, env.Field)
				assert.Empty(t, f.images.uploaded)
				return
			}

			var out struct {
				ImageURL string `json:"imageUrl"`
			}
			require.NoError(t, json.Unmarshal(env.Data, &out))
			assert.Equal(t, f.images.uploaded, []string{out.ImageURL})
		})
	}
}

func ownerOf(f *selfServiceFixture) string { return f.awardee.ID.String() }

func TestUploadThenSaveAdoptsImage(t *testing.T) {
	f := newSelfServiceFixture(t)
	withUploads(f)
	c := newClient(t, f.app)
	require.True(t, verify(t, c, f, "amara@example.com").Verified)

	resp, body := f.upload(t, c, ownerOf(f), []byte("\x89PNG\r\n\x1a\nfake"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &out))

	payload, _ := json.Marshal(map[string]string{"headline": "Engineer", "avatar_url": out.ImageURL})
	resp, body = c.json(http.MethodPut, f.path(""), string(payload))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	var saved saveResponse
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &saved))
	require.NotNil(t, saved.Profile.AvatarURL)
	assert.Equal(t, out.ImageURL, *saved.Profile.AvatarURL)
	assert.Equal(t, []string{out.ImageURL}, f.images.attached)
}

func TestSaveRejectsForeignAvatarURL(t *testing.T) {
	f := newSelfServiceFixture(t)
	c := newClient(t, f.app)
	require.True(t, verify(t, c, f, "amara@example.com").Verified)

	resp, body := c.json(http.MethodPut, f.path(""), `{"avatar_url":"https://elsewhere.example.com/a.png"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body)
	assert.Equal(t, "avatar_url", decode(t, body).Field)
	assert.Nil(t, f.awardee.AvatarURL)
}
