package models

import "time"

// User owns activities, tags and templates. Authentication is by API
// key; the selected spec scopes dashboard and gap analysis.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	APIKey       string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	SelectedSpec string     `json:"selected_spec,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}

// MaskedAPIKey returns the first 8 chars of the key for safe logging
func (u *User) MaskedAPIKey() string {
	if len(u.APIKey) < 8 {
		return "***"
	}
	return u.APIKey[:8] + "..."
}
