package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

type CommentHandler struct {
	store Store
	log   *zap.Logger
}

func NewCommentHandler(s Store, log *zap.Logger) *CommentHandler {
	return &CommentHandler{store: s, log: log}
}

// GetComments returns a request's comments as threads
func (h *CommentHandler) GetComments(c *gin.Context) {
	requestID, ok := parseID(c, "id", "request")
	if !ok {
		return
	}

	comments, err := h.store.ListComments(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, h.log, err, "Request")
		return
	}

	threads, err := board.AssembleThreads(comments)
	var malformed *board.MalformedThreadError
	if errors.As(err, &malformed) {
		// serve what could be placed
		h.log.Warn("orphaned replies",
			zap.String("request_id", requestID.String()),
			zap.Int("count", len(malformed.IDs)))
	}

	c.JSON(http.StatusOK, threads)
}

// CreateComment adds a comment or a reply to a request (PROTECTED)
func (h *CommentHandler) CreateComment(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	requestID, ok := parseID(c, "id", "request")
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	comment, err := h.store.CreateComment(c.Request.Context(), requestID, session.User, input.Content, input.ParentID)
	if err != nil {
		respondError(c, h.log, err, "Request")
		return
	}

	c.JSON(http.StatusCreated, board.Reply{Comment: comment, Author: board.AuthorOf(comment.Profile)})
}

// DeleteComment removes a comment and its replies (PROTECTED - requires ownership)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "comment")
	if !ok {
		return
	}

	if err := h.store.DeleteComment(c.Request.Context(), id, session.User.ID); err != nil {
		respondError(c, h.log, err, "Comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
