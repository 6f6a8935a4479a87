package models

import "testing"

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{"admin user", RoleAdmin, true},
		{"editor", RoleEditor, false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Role: tt.role}
			if got := user.IsAdmin(); got != tt.expected {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUser_CanEditContent(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected bool
	}{
		{"admin user", RoleAdmin, true},
		{"editor", RoleEditor, true},
		{"unknown role", "viewer", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Role: tt.role}
			if got := user.CanEditContent(); got != tt.expected {
				t.Errorf("CanEditContent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUser_CanManageRequests(t *testing.T) {
	if (&User{Role: RoleEditor}).CanManageRequests() {
		t.Error("editor should not manage feature requests")
	}
	if !(&User{Role: RoleAdmin}).CanManageRequests() {
		t.Error("admin should manage feature requests")
	}
}
