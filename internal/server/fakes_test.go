package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/emilythestrangee/feedback-board/backend/internal/auth"
	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
	"github.com/emilythestrangee/feedback-board/backend/internal/store"
)

// memStore is an in-memory handlers.Store.
type memStore struct {
	mu       sync.Mutex
	requests []models.Request
	comments []models.Comment
	votes    []models.Vote
	profiles map[uuid.UUID]models.Profile
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[uuid.UUID]models.Profile)}
}

func (m *memStore) ensureProfile(user models.User) {
	if _, ok := m.profiles[user.ID]; !ok {
		m.profiles[user.ID] = store.DefaultProfile(user)
	}
}

func (m *memStore) load(req models.Request) models.Request {
	if p, ok := m.profiles[req.UserID]; ok {
		req.Profile = &p
	}
	req.Votes = nil
	for _, v := range m.votes {
		if v.RequestID == req.ID {
			req.Votes = append(req.Votes, v)
		}
	}
	req.Comments = nil
	for _, c := range m.comments {
		if c.RequestID == req.ID {
			req.Comments = append(req.Comments, c)
		}
	}
	return req
}

func (m *memStore) find(id uuid.UUID) int {
	for i, r := range m.requests {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (m *memStore) ListRequests(_ context.Context, start, end time.Time) ([]models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Request
	for _, r := range m.requests {
		if !r.CreatedAt.Before(start) && !r.CreatedAt.After(end) {
			out = append(out, m.load(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetRequest(_ context.Context, id uuid.UUID) (models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.find(id)
	if i < 0 {
		return models.Request{}, store.ErrNotFound
	}
	return m.load(m.requests[i]), nil
}

func (m *memStore) CreateRequest(_ context.Context, user models.User, title, description string, tags []string) (models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureProfile(user)
	req := models.Request{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Tags:        pq.StringArray(tags),
		UserID:      user.ID,
		CreatedAt:   time.Now().UTC(),
	}
	m.requests = append(m.requests, req)
	return m.load(req), nil
}

func (m *memStore) DeleteRequest(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.find(id)
	if i < 0 {
		return store.ErrNotFound
	}
	if m.requests[i].UserID != userID {
		return store.ErrForbidden
	}
	m.requests = append(m.requests[:i], m.requests[i+1:]...)
	return nil
}

func (m *memStore) AllTags(context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, []string(r.Tags))
	}
	return out, nil
}

func (m *memStore) ToggleVote(_ context.Context, requestID uuid.UUID, user models.User, dir models.Direction) (store.VoteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.find(requestID) < 0 {
		return store.VoteResult{}, store.ErrNotFound
	}
	m.ensureProfile(user)

	idx := -1
	var current *models.Direction
	for i, v := range m.votes {
		if v.RequestID == requestID && v.UserID == user.ID {
			idx = i
			d := v.Direction
			current = &d
		}
	}

	action, err := board.DecideToggle(current, dir)
	if err != nil {
		return store.VoteResult{}, err
	}
	switch action {
	case board.ToggleCreate:
		m.votes = append(m.votes, models.Vote{ID: uuid.New(), RequestID: requestID, UserID: user.ID, Direction: dir})
	case board.ToggleRemove:
		m.votes = append(m.votes[:idx], m.votes[idx+1:]...)
	case board.ToggleReplace:
		m.votes[idx].Direction = dir
	}

	tally := board.Tally(m.load(models.Request{ID: requestID}).Votes, user.ID)
	return store.VoteResult{Action: action, VoteCount: tally.Net, UserVote: tally.Viewer}, nil
}

func (m *memStore) ListComments(_ context.Context, requestID uuid.UUID) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Comment
	for _, c := range m.comments {
		if c.RequestID == requestID {
			if p, ok := m.profiles[c.UserID]; ok {
				c.Profile = &p
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) CreateComment(_ context.Context, requestID uuid.UUID, user models.User, content string, parentID *uuid.UUID) (models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.find(requestID) < 0 {
		return models.Comment{}, store.ErrNotFound
	}
	if parentID != nil {
		var parent *models.Comment
		for i := range m.comments {
			if m.comments[i].ID == *parentID {
				parent = &m.comments[i]
			}
		}
		if err := board.ValidateReplyTarget(parent, requestID); err != nil {
			return models.Comment{}, err
		}
	}

	m.ensureProfile(user)
	c := models.Comment{
		ID:        uuid.New(),
		RequestID: requestID,
		UserID:    user.ID,
		Content:   content,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	m.comments = append(m.comments, c)
	p := m.profiles[user.ID]
	c.Profile = &p
	return c, nil
}

func (m *memStore) DeleteComment(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.comments {
		if c.ID != id {
			continue
		}
		if c.UserID != userID {
			return store.ErrForbidden
		}
		kept := m.comments[:0]
		for _, other := range m.comments {
			if other.ID == id || (other.ParentID != nil && *other.ParentID == id) {
				continue
			}
			kept = append(kept, other)
		}
		m.comments = kept
		return nil
	}
	return store.ErrNotFound
}

func (m *memStore) GetProfile(_ context.Context, id uuid.UUID) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return models.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) UpsertProfile(_ context.Context, user models.User, update models.ProfileUpdate) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureProfile(user)
	p := m.profiles[user.ID]
	if update.Username != "" {
		p.Username = update.Username
	}
	if update.AvatarURL != "" {
		p.AvatarURL = update.AvatarURL
	}
	m.profiles[user.ID] = p
	return p, nil
}

// fakeAuth signs users in with the token "token-<email>".
type fakeAuth struct {
	mu       sync.Mutex
	sessions map[string]auth.Session
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: make(map[string]auth.Session)}
}

func (f *fakeAuth) login(email string) (string, models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := models.User{ID: uuid.New(), Email: email}
	token := "token-" + email
	f.sessions[token] = auth.Session{ID: uuid.New(), User: user, ExpiresAt: time.Now().Add(auth.TokenTTL)}
	return token, user
}

func (f *fakeAuth) SignUp(_ context.Context, req models.SignUpRequest) (models.User, error) {
	if req.InviteCode != "first100" && req.InviteCode != "FIRST100" {
		return models.User{}, auth.ErrInvalidInvite
	}
	return models.User{ID: uuid.New(), Email: req.Email}, nil
}

func (f *fakeAuth) Confirm(context.Context, string, string) error { return auth.ErrInvalidCode }

func (f *fakeAuth) SignIn(context.Context, string, string) (string, auth.Session, error) {
	return "", auth.Session{}, auth.ErrInvalidCredentials
}

func (f *fakeAuth) SignOut(_ context.Context, session auth.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for token, s := range f.sessions {
		if s.ID == session.ID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeAuth) Resolve(_ context.Context, token string) (auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[token]
	if !ok {
		return auth.Session{}, auth.ErrInvalidToken
	}
	return s, nil
}
