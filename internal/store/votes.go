package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

type VoteResult struct {
	Action    board.ToggleAction `json:"action"`
	VoteCount int                `json:"vote_count"`
	UserVote  *models.Direction  `json:"user_vote"`
}

// ToggleVote applies the toggle rules in one transaction. The request row is
// locked first, so concurrent toggles on the same request run one after the
// other and none of them reads a stale vote.
func (s *Store) ToggleVote(ctx context.Context, requestID uuid.UUID, user models.User, dir models.Direction) (VoteResult, error) {
	var result VoteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.Request
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&req, "id = ?", requestID).Error
		if err != nil {
			return wrap("lock request", err)
		}

		if err := ensureProfile(tx, user); err != nil {
			return err
		}

		var existing models.Vote
		var current *models.Direction
		err = tx.Where("request_id = ? AND user_id = ?", requestID, user.ID).First(&existing).Error
		switch {
		case err == nil:
			d := existing.Direction
			current = &d
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return wrap("find vote", err)
		}

		action, err := board.DecideToggle(current, dir)
		if err != nil {
			return err
		}

		switch action {
		case board.ToggleCreate:
			err = tx.Create(&models.Vote{RequestID: requestID, UserID: user.ID, Direction: dir}).Error
		case board.ToggleRemove:
			err = tx.Delete(&existing).Error
		case board.ToggleReplace:
			err = tx.Model(&existing).Update("direction", dir).Error
		}
		if err != nil {
			return wrap("write vote", err)
		}

		var votes []models.Vote
		if err := tx.Where("request_id = ?", requestID).Find(&votes).Error; err != nil {
			return wrap("count votes", err)
		}
		tally := board.Tally(votes, user.ID)
		result = VoteResult{Action: action, VoteCount: tally.Net, UserVote: tally.Viewer}
		return nil
	})

	return result, err
}
