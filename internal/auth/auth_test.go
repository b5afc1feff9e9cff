package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
	"github.com/emilythestrangee/feedback-board/backend/internal/store"
)

type memUsers struct {
	mu       sync.Mutex
	users    map[string]models.User
	sessions map[uuid.UUID]models.Session
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]models.User{}, sessions: map[uuid.UUID]models.Session{}}
}

func (m *memUsers) CreateUser(_ context.Context, email, hash string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return models.User{}, store.ErrDuplicate
	}
	u := models.User{ID: uuid.New(), Email: email, Password: hash}
	m.users[email] = u
	return u, nil
}

func (m *memUsers) UserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) ConfirmUser(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, u := range m.users {
		if u.ID == id {
			u.ConfirmedAt = &at
			m.users[k] = u
		}
	}
	return nil
}

func (m *memUsers) SetUnconfirmedPassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, u := range m.users {
		if u.ID == id && !u.Confirmed() {
			u.Password = hash
			m.users[k] = u
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memUsers) CreateSession(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memUsers) SessionByID(_ context.Context, id uuid.UUID, now time.Time) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(now) {
		return models.Session{}, store.ErrNotFound
	}
	for _, u := range m.users {
		if u.ID == s.UserID {
			s.User = u
		}
	}
	return s, nil
}

func (m *memUsers) DeleteSession(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	log := zap.NewNop()
	return NewService(newMemUsers(), NewTokens("test-secret-0123456789"), NewDevConfirmer(log), "FIRST100", log)
}

func TestSignUpFlow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.SignUp(ctx, models.SignUpRequest{Email: "ada@example.com", Password: "secret123", InviteCode: "nope"})
	assert.ErrorIs(t, err, ErrInvalidInvite)

	user, err := svc.SignUp(ctx, models.SignUpRequest{Email: "ada@example.com", Password: "secret123", InviteCode: "first100"})
	require.NoError(t, err)
	assert.False(t, user.Confirmed())

	_, _, err = svc.SignIn(ctx, "ada@example.com", "secret123")
	assert.ErrorIs(t, err, ErrNotConfirmed)

	assert.ErrorIs(t, svc.Confirm(ctx, "ada@example.com", "123456"), ErrInvalidCode)
	require.NoError(t, svc.Confirm(ctx, "ada@example.com", DevConfirmCode))

	_, err = svc.SignUp(ctx, models.SignUpRequest{Email: "ada@example.com", Password: "secret123", InviteCode: "FIRST100"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = svc.SignIn(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, session, err := svc.SignIn(ctx, "ada@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	resolved, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, resolved.ID)
	assert.Equal(t, "ada@example.com", resolved.User.Email)

	require.NoError(t, svc.SignOut(ctx, resolved))
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// flakyConfirmer fails the first failures sends, then accepts code "424242".
type flakyConfirmer struct {
	failures int
	sent     int
}

func (f *flakyConfirmer) Send(context.Context, string) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("twilio: 503")
	}
	f.sent++
	return nil
}

func (f *flakyConfirmer) Check(_ context.Context, _, code string) (bool, error) {
	return code == "424242", nil
}

func TestSignUpRetryAfterSendFailure(t *testing.T) {
	ctx := context.Background()
	confirmer := &flakyConfirmer{failures: 1}
	svc := NewService(newMemUsers(), NewTokens("test-secret-0123456789"), confirmer, "", zap.NewNop())

	_, err := svc.SignUp(ctx, models.SignUpRequest{Email: "bo@example.com", Password: "first-pass"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailTaken)

	user, err := svc.SignUp(ctx, models.SignUpRequest{Email: "bo@example.com", Password: "second-pass"})
	require.NoError(t, err)
	assert.False(t, user.Confirmed())
	assert.Equal(t, 1, confirmer.sent)

	require.NoError(t, svc.Confirm(ctx, "bo@example.com", "424242"))

	_, _, err = svc.SignIn(ctx, "bo@example.com", "first-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, session, err := svc.SignIn(ctx, "bo@example.com", "second-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	_, err = svc.SignUp(ctx, models.SignUpRequest{Email: "bo@example.com", Password: "third-pass"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUpWithoutConfirmer(t *testing.T) {
	log := zap.NewNop()
	svc := NewService(newMemUsers(), NewTokens("test-secret-0123456789"), nil, "", log)

	_, err := svc.SignUp(context.Background(), models.SignUpRequest{Email: "x@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrConfirmationUnavailable)
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("test-secret-0123456789")
	sessionID, userID := uuid.New(), uuid.New()

	raw, expires, err := tokens.Issue(sessionID, userID, "ada@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), expires, time.Minute)

	got, claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
	assert.Equal(t, userID.String(), claims.Subject)

	_, _, err = NewTokens("another-secret-0123456789").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tokens.now = func() time.Time { return time.Now().Add(-2 * TokenTTL) }
	old, _, err := tokens.Issue(sessionID, userID, "ada@example.com")
	require.NoError(t, err)
	tokens.now = time.Now
	_, _, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
