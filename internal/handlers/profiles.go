package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

type ProfileHandler struct {
	store Store
	log   *zap.Logger
}

func NewProfileHandler(s Store, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{store: s, log: log}
}

// GetProfile returns a user's public profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile upserts the caller's own profile (PROTECTED)
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var input models.ProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.store.UpsertProfile(c.Request.Context(), session.User, input)
	if err != nil {
		respondError(c, h.log, err, "Profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}
