package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"top100/internal/models"
)

// UserLoader loads admin console users by OIDC subject.
type UserLoader interface {
	GetUserBySub(ctx context.Context, sub string) (*models.User, error)
}

// AuthMiddleware handles admin authentication via sessions.
type AuthMiddleware struct {
	users UserLoader
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

func errorJSON(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// RequireAuth ensures an admin console user is logged in.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "authentication required")
	}

	userSub, ok := sess.Get("user_sub").(string)
	if !ok || userSub == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "authentication required")
	}

	user, err := m.users.GetUserBySub(c.Context(), userSub)
	if err != nil {
		sess.Destroy()
		return errorJSON(c, fiber.StatusUnauthorized, "authentication required")
	}

	c.Locals("user", user)
	return c.Next()
}

// LoadUser stores the logged-in admin console user, if any, without
// rejecting anonymous requests.
func (m *AuthMiddleware) LoadUser(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return c.Next()
	}
	if userSub, ok := sess.Get("user_sub").(string); ok && userSub != "" {
		if user, err := m.users.GetUserBySub(c.Context(), userSub); err == nil {
			c.Locals("user", user)
		}
	}
	return c.Next()
}

// RequireEditor allows users that may manage content. Must run after RequireAuth.
func (m *AuthMiddleware) RequireEditor(c fiber.Ctx) error {
	user := GetUser(c)
	if user == nil || !user.CanEditContent() {
		return errorJSON(c, fiber.StatusForbidden, "editor access required")
	}
	return c.Next()
}

// RequireAdmin allows admins only. Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(c fiber.Ctx) error {
	user := GetUser(c)
	if user == nil || !user.IsAdmin() {
		return errorJSON(c, fiber.StatusForbidden, "admin access required")
	}
	return c.Next()
}

// GetUser returns the authenticated user, or nil.
func GetUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

func verifiedKey(id uuid.UUID) string {
	return "verified:" + id.String()
}

// MarkVerified records in the session that its holder proved ownership of
// the awardee profile, valid for ttl.
func MarkVerified(c fiber.Ctx, id uuid.UUID, ttl time.Duration) bool {
	sess := session.FromContext(c)
	if sess == nil {
		return false
	}
	sess.Set(verifiedKey(id), time.Now().Add(ttl).Unix())
	return true
}

// IsVerified reports whether the session holds an unexpired verification
// for the awardee profile.
func IsVerified(c fiber.Ctx, id uuid.UUID) bool {
	sess := session.FromContext(c)
	if sess == nil {
		return false
	}
	expires, ok := sess.Get(verifiedKey(id)).(int64)
	if !ok {
		return false
	}
	if time.Now().Unix() > expires {
		sess.Delete(verifiedKey(id))
		return false
	}
	return true
}

// ClearVerified removes the session's verification for the awardee profile.
func ClearVerified(c fiber.Ctx, id uuid.UUID) {
	if sess := session.FromContext(c); sess != nil {
		sess.Delete(verifiedKey(id))
	}
}

// RequireVerifiedOwner rejects requests for profile :id unless the session
// verified ownership. The parsed id is stored in Locals("awardee_id").
func RequireVerifiedOwner(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid profile id")
	}
	if !IsVerified(c, id) {
		return errorJSON(c, fiber.StatusForbidden, "Email verification required")
	}
	c.Locals("awardee_id", id)
	return c.Next()
}

// AwardeeID returns the id stored by RequireVerifiedOwner.
func AwardeeID(c fiber.Ctx) uuid.UUID {
	id, _ := c.Locals("awardee_id").(uuid.UUID)
	return id
}

func savedKey(id uuid.UUID) string {
	return "saved:" + id.String()
}

// MarkSaved records that the profile was saved in this session, which
// unlocks the feature request step.
func MarkSaved(c fiber.Ctx, id uuid.UUID) {
	if sess := session.FromContext(c); sess != nil {
		sess.Set(savedKey(id), true)
	}
}

// HasSaved reports whether the profile was saved in this session.
func HasSaved(c fiber.Ctx, id uuid.UUID) bool {
	sess := session.FromContext(c)
	if sess == nil {
		return false
	}
	saved, _ := sess.Get(savedKey(id)).(bool)
	return saved
}

// ClearSaved ends the feature request step for the profile.
func ClearSaved(c fiber.Ctx, id uuid.UUID) {
	if sess := session.FromContext(c); sess != nil {
		sess.Delete(savedKey(id))
	}
}
