package board

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

func TestSummarize(t *testing.T) {
	viewer := uuid.New()
	req := models.Request{
		ID:          uuid.New(),
		Title:       "Dark mode",
		Description: "Please",
		Tags:        pq.StringArray{"ui"},
		UserID:      uuid.New(),
		CreatedAt:   time.Now(),
		Profile:     &models.Profile{Username: "grace"},
		Votes: []models.Vote{
			{UserID: viewer, Direction: models.VoteUp},
			{UserID: uuid.New(), Direction: models.VoteUp},
		},
		Comments: []models.Comment{{ID: uuid.New()}},
	}

	got := Summarize(req, viewer)
	assert.Equal(t, 2, got.VoteCount)
	assert.Equal(t, 1, got.CommentCount)
	assert.Equal(t, "grace", got.Author.Username)
	require.NotNil(t, got.UserVote)
	assert.Equal(t, models.VoteUp, *got.UserVote)

	req.Profile = nil
	req.Tags = nil
	anon := Summarize(req, uuid.Nil)
	assert.Equal(t, "Anonymous", anon.Author.Username)
	assert.Nil(t, anon.UserVote)
	assert.NotNil(t, anon.Tags)
}
