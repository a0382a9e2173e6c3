package model

import "time"

// Profile is a stable identity from the identity service: either a
// registered account or a transient guest. Peers carry only the
// {ID, DisplayName} pair into rooms.
type Profile struct {
	ID          UserID    `json:"id"`
	Username    string    `json:"username,omitempty"` // empty for guests
	DisplayName string    `json:"displayName"`
	IsGuest     bool      `json:"isGuest"`
	CreatedAt   time.Time `json:"createdAt"`

	// PasswordHash is the bcrypt hash for registered accounts. API
	// handlers serialize response DTOs, never this struct, so the hash
	// stays inside the storage layer.
	PasswordHash []byte `json:"passwordHash,omitempty"`
}
