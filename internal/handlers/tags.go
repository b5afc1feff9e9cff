package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/cache"
)

type TagHandler struct {
	store Store
	cache cache.TagCache
	log   *zap.Logger
}

func NewTagHandler(s Store, tc cache.TagCache, log *zap.Logger) *TagHandler {
	return &TagHandler{store: s, cache: tc, log: log}
}

// GetTags returns every tag with the number of requests carrying it, most
// popular first
func (h *TagHandler) GetTags(c *gin.Context) {
	ctx := c.Request.Context()

	counts, hit, err := h.cache.Get(ctx)
	if err != nil {
		h.log.Warn("tag cache read failed", zap.Error(err))
	}
	if hit {
		c.JSON(http.StatusOK, counts)
		return
	}

	sets, err := h.store.AllTags(ctx)
	if err != nil {
		respondError(c, h.log, err, "Tags")
		return
	}
	counts = board.TagCounts(sets)

	if err := h.cache.Set(ctx, counts); err != nil {
		h.log.Warn("tag cache write failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, counts)
}
