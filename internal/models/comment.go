package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID  `gorm:"type:uuid;not null;index" json:"request_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	Profile   *Profile   `gorm:"foreignKey:UserID" json:"-"`
	Content   string     `gorm:"not null" json:"content"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsTopLevel reports whether the comment has no parent.
func (c Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

type CreateCommentRequest struct {
	Content  string     `json:"content" binding:"required,max=2000"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}
