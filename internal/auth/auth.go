// Package auth implements email/password accounts, email confirmation and
// token-backed sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/feedback-board/backend/internal/config"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
	"github.com/emilythestrangee/feedback-board/backend/internal/store"
)

var (
	ErrInvalidInvite      = errors.New("invalid invite code")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfirmed       = errors.New("email not confirmed")
	ErrInvalidCode        = errors.New("invalid confirmation code")
	ErrEmailTaken         = errors.New("email already registered")
)

// Users is the slice of the store the auth service needs.
type Users interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	ConfirmUser(ctx context.Context, id uuid.UUID, at time.Time) error
	SetUnconfirmedPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreateSession(ctx context.Context, session models.Session) error
	SessionByID(ctx context.Context, id uuid.UUID, now time.Time) (models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// Session is the explicit auth context handed to handlers.
type Session struct {
	ID        uuid.UUID   `json:"id"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type Service struct {
	users      Users
	tokens     *Tokens
	confirmer  Confirmer
	inviteCode string
	log        *zap.Logger
	now        func() time.Time
}

func NewService(users Users, tokens *Tokens, confirmer Confirmer, inviteCode string, log *zap.Logger) *Service {
	if confirmer == nil {
		confirmer = noConfirmer{}
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		confirmer:  confirmer,
		inviteCode: inviteCode,
		log:        log,
		now:        time.Now,
	}
}

// ConfirmerFromConfig picks Twilio Verify, then dev mode, then nothing.
func ConfirmerFromConfig(cfg *config.Config, log *zap.Logger) Confirmer {
	switch {
	case cfg.TwilioEnabled():
		return NewTwilioConfirmer(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioVerifySID)
	case cfg.DevConfirm:
		log.Warn("AUTH_DEV_CONFIRM is set, confirmation codes are logged and not emailed")
		return NewDevConfirmer(log)
	default:
		return nil
	}
}

// CheckInvite compares case-insensitively. An empty configured code lets
// everyone in.
func (s *Service) CheckInvite(code string) error {
	if s.inviteCode == "" {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(code), s.inviteCode) {
		return ErrInvalidInvite
	}
	return nil
}

// SignUp creates an unconfirmed user and sends the confirmation code. Signing
// up again before confirming re-sends the code.
func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (models.User, error) {
	if err := s.CheckInvite(req.InviteCode); err != nil {
		return models.User{}, err
	}
	if _, ok := s.confirmer.(noConfirmer); ok {
		return models.User{}, ErrConfirmationUnavailable
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, req.Email, string(hash))
	if errors.Is(err, store.ErrDuplicate) {
		user, err = s.retrySignUp(ctx, req.Email, string(hash))
	}
	if err != nil {
		return models.User{}, err
	}

	if err := s.confirmer.Send(ctx, user.Email); err != nil {
		return user, err
	}
	return user, nil
}

// retrySignUp lets an address that never confirmed sign up again: the new
// password replaces the old one and a fresh code goes out.
func (s *Service) retrySignUp(ctx context.Context, email, hash string) (models.User, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if user.Confirmed() {
		return models.User{}, ErrEmailTaken
	}
	if err := s.users.SetUnconfirmedPassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	user.Password = hash
	s.log.Info("confirmation re-sent", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Confirm checks the code and marks the user confirmed.
func (s *Service) Confirm(ctx context.Context, email, code string) error {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if user.Confirmed() {
		return nil
	}

	ok, err := s.confirmer.Check(ctx, user.Email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return s.users.ConfirmUser(ctx, user.ID, s.now().UTC())
}

// SignIn verifies the password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, Session, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", Session{}, ErrInvalidCredentials
		}
		return "", Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", Session{}, ErrInvalidCredentials
	}
	if !user.Confirmed() {
		return "", Session{}, ErrNotConfirmed
	}

	sessionID := uuid.New()
	token, expires, err := s.tokens.Issue(sessionID, user.ID, user.Email)
	if err != nil {
		return "", Session{}, err
	}

	err = s.users.CreateSession(ctx, models.Session{ID: sessionID, UserID: user.ID, ExpiresAt: expires})
	if err != nil {
		return "", Session{}, err
	}

	s.log.Info("user signed in", zap.String("user_id", user.ID.String()))
	return token, Session{ID: sessionID, User: user, ExpiresAt: expires}, nil
}

// SignOut ends the session; its token stops working immediately.
func (s *Service) SignOut(ctx context.Context, session Session) error {
	return s.users.DeleteSession(ctx, session.ID)
}

// Resolve turns a bearer token into a live session.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	sessionID, _, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, err
	}

	row, err := s.users.SessionByID(ctx, sessionID, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, fmt.Errorf("%w: session ended", ErrInvalidToken)
		}
		return Session{}, err
	}
	return Session{ID: row.ID, User: row.User, ExpiresAt: row.ExpiresAt}, nil
}
