package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

// ListComments returns a request's comments oldest first.
func (s *Store) ListComments(ctx context.Context, requestID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Where("request_id = ?", requestID).
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		return nil, wrap("list comments", err)
	}
	return comments, nil
}

// CreateComment adds a comment or a reply. A reply must target a top-level
// comment on the same request.
func (s *Store) CreateComment(ctx context.Context, requestID uuid.UUID, user models.User, content string, parentID *uuid.UUID) (models.Comment, error) {
	comment := models.Comment{
		RequestID: requestID,
		UserID:    user.ID,
		Content:   content,
		ParentID:  parentID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Request{}).Where("id = ?", requestID).Count(&count).Error; err != nil {
			return wrap("find request", err)
		}
		if count == 0 {
			return wrap("find request", gorm.ErrRecordNotFound)
		}

		if parentID != nil {
			var parent models.Comment
			err := tx.First(&parent, "id = ?", *parentID).Error
			var target *models.Comment
			switch {
			case err == nil:
				target = &parent
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return wrap("find parent", err)
			}
			if err := board.ValidateReplyTarget(target, requestID); err != nil {
				return err
			}
		}

		if err := ensureProfile(tx, user); err != nil {
			return err
		}
		return wrap("create comment", tx.Create(&comment).Error)
	})
	if err != nil {
		return models.Comment{}, err
	}

	err = s.db.WithContext(ctx).Preload("Profile").First(&comment, "id = ?", comment.ID).Error
	return comment, wrap("reload comment", err)
}

// DeleteComment removes a comment owned by userID together with its replies.
func (s *Store) DeleteComment(ctx context.Context, id, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, "id = ?", id).Error; err != nil {
			return wrap("delete comment", err)
		}
		if comment.UserID != userID {
			return ErrForbidden
		}
		if err := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return wrap("delete replies", err)
		}
		return wrap("delete comment", tx.Delete(&comment).Error)
	})
}
