package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Request is a submitted feature request.
type Request struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"size:100;not null" json:"title"`
	Description string         `gorm:"size:500;not null" json:"description"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Profile     *Profile       `gorm:"foreignKey:UserID" json:"-"`
	Votes       []Vote         `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"-"`
	Comments    []Comment      `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (Request) TableName() string {
	return "product_requests"
}

// CreateRequestInput accepts tags either as a JSON array or as a
// comma-separated string.
type CreateRequestInput struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"required,max=500"`
	Tags        any    `json:"tags" binding:"required"`
}

// RequestSummary is a request with its derived counts, as served to clients.
type RequestSummary struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Tags         []string   `json:"tags"`
	UserID       uuid.UUID  `json:"user_id"`
	CreatedAt    time.Time  `json:"created_at"`
	Author       Author     `json:"author"`
	VoteCount    int        `json:"vote_count"`
	CommentCount int        `json:"comment_count"`
	UserVote     *Direction `json:"user_vote"`
}
