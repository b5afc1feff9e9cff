package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

func preloadRequest(db *gorm.DB) *gorm.DB {
	return db.Preload("Profile").Preload("Votes").Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "request_id")
	})
}

// ListRequests returns the requests created inside [start, end], newest
// first, with profile, votes and comment ids loaded.
func (s *Store) ListRequests(ctx context.Context, start, end time.Time) ([]models.Request, error) {
	var reqs []models.Request
	err := preloadRequest(s.db.WithContext(ctx)).
		Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at desc").
		Find(&reqs).Error
	if err != nil {
		return nil, wrap("list requests", err)
	}
	return reqs, nil
}

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (models.Request, error) {
	var req models.Request
	err := preloadRequest(s.db.WithContext(ctx)).First(&req, "id = ?", id).Error
	return req, wrap("get request", err)
}

// CreateRequest inserts a request, creating the author's profile first when
// they have none. Tags must already be normalized.
func (s *Store) CreateRequest(ctx context.Context, user models.User, title, description string, tags []string) (models.Request, error) {
	req := models.Request{
		Title:       title,
		Description: description,
		Tags:        pq.StringArray(tags),
		UserID:      user.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProfile(tx, user); err != nil {
			return err
		}
		return wrap("create request", tx.Create(&req).Error)
	})
	if err != nil {
		return models.Request{}, err
	}
	return s.GetRequest(ctx, req.ID)
}

// DeleteRequest removes a request owned by userID; votes and comments
// cascade.
func (s *Store) DeleteRequest(ctx context.Context, id, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.Select("id", "user_id").First(&req, "id = ?", id).Error; err != nil {
			return wrap("delete request", err)
		}
		if req.UserID != userID {
			return ErrForbidden
		}
		return wrap("delete request", tx.Delete(&req).Error)
	})
}

// AllTags returns every request's tag set.
func (s *Store) AllTags(ctx context.Context) ([][]string, error) {
	var rows []pq.StringArray
	err := s.db.WithContext(ctx).Model(&models.Request{}).
		Where("tags IS NOT NULL").
		Pluck("tags", &rows).Error
	if err != nil {
		return nil, wrap("list tags", err)
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string(r)
	}
	return out, nil
}
