package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/auth"
	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/cache"
	"github.com/emilythestrangee/feedback-board/backend/internal/feed"
	"github.com/emilythestrangee/feedback-board/backend/internal/metrics"
	"github.com/emilythestrangee/feedback-board/backend/internal/middleware"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
	"github.com/emilythestrangee/feedback-board/backend/internal/store"
)

// Store is the data access the handlers need. *store.Store implements it.
type Store interface {
	ListRequests(ctx context.Context, start, end time.Time) ([]models.Request, error)
	GetRequest(ctx context.Context, id uuid.UUID) (models.Request, error)
	CreateRequest(ctx context.Context, user models.User, title, description string, tags []string) (models.Request, error)
	DeleteRequest(ctx context.Context, id, userID uuid.UUID) error
	AllTags(ctx context.Context) ([][]string, error)

	ToggleVote(ctx context.Context, requestID uuid.UUID, user models.User, dir models.Direction) (store.VoteResult, error)

	ListComments(ctx context.Context, requestID uuid.UUID) ([]models.Comment, error)
	CreateComment(ctx context.Context, requestID uuid.UUID, user models.User, content string, parentID *uuid.UUID) (models.Comment, error)
	DeleteComment(ctx context.Context, id, userID uuid.UUID) error

	GetProfile(ctx context.Context, id uuid.UUID) (models.Profile, error)
	UpsertProfile(ctx context.Context, user models.User, update models.ProfileUpdate) (models.Profile, error)
}

// AuthService is the account side of the API. *auth.Service implements it.
type AuthService interface {
	SignUp(ctx context.Context, req models.SignUpRequest) (models.User, error)
	Confirm(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string) (string, auth.Session, error)
	SignOut(ctx context.Context, session auth.Session) error
	Resolve(ctx context.Context, token string) (auth.Session, error)
}

type Deps struct {
	Store   Store
	Auth    AuthService
	Tags    cache.TagCache
	Hub     *feed.Hub
	Metrics *metrics.Metrics
	Log     *zap.Logger

	// Origins are the websocket origin patterns the feed accepts.
	Origins []string
}

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Request *RequestHandler
	Comment *CommentHandler
	Profile *ProfileHandler
	Tag     *TagHandler
	Feed    *FeedHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Tags == nil {
		d.Tags = cache.Nop{}
	}

	return &Handler{
		Auth:    NewAuthHandler(d.Auth, d.Store, d.Log),
		Request: NewRequestHandler(d.Store, d.Metrics, d.Log),
		Comment: NewCommentHandler(d.Store, d.Log),
		Profile: NewProfileHandler(d.Store, d.Log),
		Tag:     NewTagHandler(d.Store, d.Tags, d.Log),
		Feed:    NewFeedHandler(d.Hub, d.Origins, d.Log),
	}
}

// respondError maps domain errors onto status codes. what names the missing
// thing in 404 messages.
func respondError(c *gin.Context, log *zap.Logger, err error, what string) {
	var status int
	var msg string

	switch {
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, what+" not found"
	case errors.Is(err, store.ErrForbidden):
		status, msg = http.StatusForbidden, "You can only delete your own content"
	case errors.Is(err, board.ErrParentNotFound):
		status, msg = http.StatusBadRequest, "Parent comment not found"
	case errors.Is(err, board.ErrNestedReply):
		status, msg = http.StatusBadRequest, "Replies can only be added to top-level comments"
	case errors.Is(err, board.ErrInvalidDirection):
		status, msg = http.StatusBadRequest, "Direction must be up or down"
	case errors.Is(err, auth.ErrInvalidInvite):
		status, msg = http.StatusBadRequest, "Invalid invite code"
	case errors.Is(err, auth.ErrInvalidCode):
		status, msg = http.StatusBadRequest, "Invalid or expired confirmation code"
	case errors.Is(err, auth.ErrEmailTaken):
		status, msg = http.StatusConflict, "Email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, auth.ErrNotConfirmed):
		status, msg = http.StatusForbidden, "Please confirm your email before signing in"
	case errors.Is(err, auth.ErrConfirmationUnavailable):
		status, msg = http.StatusServiceUnavailable, "Sign-up is not available right now"
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the answer
		c.Status(499)
		return
	default:
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		status, msg = http.StatusInternalServerError, "Internal server error"
	}

	c.JSON(status, gin.H{"error": msg})
}

func parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// currentSession returns the caller's session on routes behind
// middleware.AuthMiddleware.
func currentSession(c *gin.Context) (auth.Session, bool) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return auth.Session{}, false
	}
	return session, true
}

// viewerID is the signed-in user's id, or uuid.Nil for anonymous readers.
func viewerID(c *gin.Context) uuid.UUID {
	if session, ok := middleware.SessionFrom(c); ok {
		return session.User.ID
	}
	return uuid.Nil
}
