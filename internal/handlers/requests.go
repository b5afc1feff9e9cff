package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/metrics"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

type RequestHandler struct {
	store   Store
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewRequestHandler(s Store, m *metrics.Metrics, log *zap.Logger) *RequestHandler {
	return &RequestHandler{store: s, metrics: m, log: log}
}

// GetRequests returns one week's requests, filtered by tags and sorted
func (h *RequestHandler) GetRequests(c *gin.Context) {
	mode, err := board.ParseSortMode(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be votes, newest or discussed"})
		return
	}
	offset, err := board.ParseWeekOffset(c.Query("week"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week must be this, last or a non-positive number"})
		return
	}

	start, end := board.WeekWindow(time.Now(), offset)
	reqs, err := h.store.ListRequests(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, h.log, err, "Request")
		return
	}

	summaries := board.SummarizeAll(reqs, viewerID(c))
	summaries = board.FilterByTags(summaries, board.SplitTags(c.Query("tags")))
	board.SortRequests(summaries, mode)

	c.JSON(http.StatusOK, summaries)
}

// GetRequest returns a single request with its counts
func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, ok := parseID(c, "id", "request")
	if !ok {
		return
	}

	req, err := h.store.GetRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Request")
		return
	}

	c.JSON(http.StatusOK, board.Summarize(req, viewerID(c)))
}

// CreateRequest submits a new request (PROTECTED)
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}

	var input models.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Title == "" || input.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and description are required"})
		return
	}

	tags, err := inputTags(input.Tags)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(tags) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one tag is required"})
		return
	}

	req, err := h.store.CreateRequest(c.Request.Context(), session.User, input.Title, input.Description, tags)
	if err != nil {
		respondError(c, h.log, err, "Request")
		return
	}

	c.JSON(http.StatusCreated, board.Summarize(req, session.User.ID))
}

// inputTags accepts a JSON array of strings or one comma-separated string.
func inputTags(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return board.SplitTags(v), nil
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			s, ok := t.(string)
			if !ok {
				return nil, errors.New("tags must be strings")
			}
			tags = append(tags, s)
		}
		return board.NormalizeTags(tags), nil
	default:
		return nil, fmt.Errorf("tags must be a list or a comma-separated string, got %T", raw)
	}
}

// DeleteRequest removes a request (PROTECTED - requires ownership)
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "request")
	if !ok {
		return
	}

	if err := h.store.DeleteRequest(c.Request.Context(), id, session.User.ID); err != nil {
		respondError(c, h.log, err, "Request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request deleted successfully"})
}

// VoteRequest toggles the caller's vote (PROTECTED)
func (h *RequestHandler) VoteRequest(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id", "request")
	if !ok {
		return
	}

	var input models.VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be up or down"})
		return
	}

	result, err := h.store.ToggleVote(c.Request.Context(), id, session.User, input.Direction)
	if err != nil {
		respondError(c, h.log, err, "Request")
		return
	}
	if h.metrics != nil {
		h.metrics.VotesToggled.WithLabelValues(string(result.Action)).Inc()
	}

	c.JSON(http.StatusOK, result)
}
