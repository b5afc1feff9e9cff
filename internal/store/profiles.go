package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return p, wrap("get profile", err)
}

// UpsertProfile applies the non-empty fields of update to the user's
// profile, creating it from defaults first when missing.
func (s *Store) UpsertProfile(ctx context.Context, user models.User, update models.ProfileUpdate) (models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p = DefaultProfile(user)
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error
		if err != nil {
			return wrap("create profile", err)
		}

		changes := map[string]any{}
		if update.Username != "" {
			changes["username"] = update.Username
		}
		if update.AvatarURL != "" {
			changes["avatar_url"] = update.AvatarURL
		}
		if len(changes) > 0 {
			if err := tx.Model(&models.Profile{ID: user.ID}).Updates(changes).Error; err != nil {
				return wrap("update profile", err)
			}
		}
		return wrap("reload profile", tx.First(&p, "id = ?", user.ID).Error)
	})
	return p, err
}
