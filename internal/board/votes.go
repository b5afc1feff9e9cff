package board

import (
	"errors"

	"github.com/google/uuid"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

var ErrInvalidDirection = errors.New("vote direction must be up or down")

// VoteTally is the reduced form of a request's votes.
type VoteTally struct {
	Net    int
	Viewer *models.Direction
}

// Tally computes up minus down and picks out the viewer's own vote. A nil
// viewer (uuid.Nil) never matches.
func Tally(votes []models.Vote, viewer uuid.UUID) VoteTally {
	var t VoteTally
	for _, v := range votes {
		switch v.Direction {
		case models.VoteUp:
			t.Net++
		case models.VoteDown:
			t.Net--
		default:
			continue
		}
		if viewer != uuid.Nil && v.UserID == viewer {
			d := v.Direction
			t.Viewer = &d
		}
	}
	return t
}

// ToggleAction is what the write path does with a submitted vote.
type ToggleAction string

const (
	ToggleCreate  ToggleAction = "created"
	ToggleReplace ToggleAction = "replaced"
	ToggleRemove  ToggleAction = "removed"
)

// DecideToggle applies toggle semantics: no vote yet creates one, the same
// direction again removes it, the opposite direction replaces it.
func DecideToggle(existing *models.Direction, submitted models.Direction) (ToggleAction, error) {
	if !submitted.Valid() {
		return "", ErrInvalidDirection
	}
	switch {
	case existing == nil:
		return ToggleCreate, nil
	case *existing == submitted:
		return ToggleRemove, nil
	default:
		return ToggleReplace, nil
	}
}

// Weight is +1 for an up vote and -1 for a down vote.
func Weight(d models.Direction) int {
	if d == models.VoteDown {
		return -1
	}
	return 1
}
