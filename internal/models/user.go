package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// User represents an admin console user authenticated via OIDC.
type User struct {
	ID        uuid.UUID `json:"id"`
	Sub       string    `json:"sub"` // OIDC subject identifier
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Role      string    `json:"role"` // editor, admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user is an admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanEditContent returns true if the user may manage announcements, events and awardees.
func (u *User) CanEditContent() bool {
	return u.Role == RoleEditor || u.Role == RoleAdmin
}

// CanManageRequests returns true if the user may move feature requests through
// their lifecycle. Only admins handle paid services.
func (u *User) CanManageRequests() bool {
	return u.IsAdmin()
}
