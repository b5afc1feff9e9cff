package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public face of a user. Its ID is the user's ID.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"not null" json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProfileUpdate struct {
	Username  string `json:"username" binding:"omitempty,min=1,max=50"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
}

// Author is the embedded display form of a profile.
type Author struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
