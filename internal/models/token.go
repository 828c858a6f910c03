package models

import (
	"time"
)

// CanvaToken is the singleton OAuth token record. A new authorization flow
// overwrites the existing row; a nil ExpiresAt means the expiry is unknown.
type CanvaToken struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AccessToken  string     `gorm:"type:text;not null" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Expired reports whether the access token's expiry has passed.
func (t *CanvaToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
