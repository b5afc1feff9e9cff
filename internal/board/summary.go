package board

import (
	"github.com/google/uuid"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

// Summarize derives the client view of a request. Votes, Comments and Profile
// must be preloaded; vote and comment counts are global, not limited to any
// week window.
func Summarize(req models.Request, viewer uuid.UUID) models.RequestSummary {
	tally := Tally(req.Votes, viewer)

	tags := []string(req.Tags)
	if tags == nil {
		tags = []string{}
	}

	return models.RequestSummary{
		ID:           req.ID,
		Title:        req.Title,
		Description:  req.Description,
		Tags:         tags,
		UserID:       req.UserID,
		CreatedAt:    req.CreatedAt,
		Author:       AuthorOf(req.Profile),
		VoteCount:    tally.Net,
		CommentCount: len(req.Comments),
		UserVote:     tally.Viewer,
	}
}

// SummarizeAll keeps the input order.
func SummarizeAll(reqs []models.Request, viewer uuid.UUID) []models.RequestSummary {
	out := make([]models.RequestSummary, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, Summarize(r, viewer))
	}
	return out
}
