package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	user := models.User{Email: strings.ToLower(strings.TrimSpace(email)), Password: passwordHash}
	err := s.db.WithContext(ctx).Create(&user).Error
	return user, wrap("create user", err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	return user, wrap("find user", err)
}

func (s *Store) ConfirmUser(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND confirmed_at IS NULL", id).
		Update("confirmed_at", at)
	return wrap("confirm user", res.Error)
}

// SetUnconfirmedPassword replaces the password of a user that has not
// confirmed yet. Confirmed users are left alone and reported as not found.
func (s *Store) SetUnconfirmedPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND confirmed_at IS NULL", id).
		Update("password", passwordHash)
	if res.Error != nil {
		return wrap("reset unconfirmed user", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("reset unconfirmed user", ErrNotFound)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session models.Session) error {
	return wrap("create session", s.db.WithContext(ctx).Create(&session).Error)
}

// SessionByID loads a live session and its user.
func (s *Store) SessionByID(ctx context.Context, id uuid.UUID, now time.Time) (models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND expires_at > ?", id, now).
		First(&session).Error
	return session, wrap("find session", err)
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return wrap("delete session", s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error)
}
