package models

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the side a vote counts for.
type Direction string

const (
	VoteUp   Direction = "up"
	VoteDown Direction = "down"
)

// Valid reports whether d is one of the two vote directions.
func (d Direction) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Vote model - one row per (request, user)
type Vote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_request_user" json:"request_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_request_user" json:"user_id"`
	Direction Direction `gorm:"type:varchar(4);not null" json:"direction"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteInput struct {
	Direction Direction `json:"direction" binding:"required,oneof=up down"`
}
