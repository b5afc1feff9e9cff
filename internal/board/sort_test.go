package board

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

func summaries(base time.Time, votes ...int) []models.RequestSummary {
	out := make([]models.RequestSummary, len(votes))
	for i, v := range votes {
		out[i] = models.RequestSummary{
			ID:        uuid.New(),
			VoteCount: v,
			// input arrives newest first
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

func voteCounts(reqs []models.RequestSummary) []int {
	out := make([]int, len(reqs))
	for i, r := range reqs {
		out[i] = r.VoteCount
	}
	return out
}

func TestSortByVotes(t *testing.T) {
	reqs := summaries(time.Now(), 3, -1, 5)
	SortRequests(reqs, SortByVotes)
	assert.Equal(t, []int{5, 3, -1}, voteCounts(reqs))
}

func TestSortTiesKeepArrivalOrder(t *testing.T) {
	base := time.Date(2024, 12, 10, 12, 0, 0, 0, time.UTC)
	reqs := summaries(base, 2, 2, 2)
	ids := []uuid.UUID{reqs[0].ID, reqs[1].ID, reqs[2].ID}

	SortRequests(reqs, SortByVotes)
	assert.Equal(t, ids, []uuid.UUID{reqs[0].ID, reqs[1].ID, reqs[2].ID})

	SortRequests(reqs, SortByNewest)
	for i := 1; i < len(reqs); i++ {
		assert.True(t, reqs[i-1].CreatedAt.After(reqs[i].CreatedAt))
	}
}

func TestSortByNewestAndDiscussed(t *testing.T) {
	base := time.Date(2024, 12, 10, 12, 0, 0, 0, time.UTC)
	reqs := []models.RequestSummary{
		{Title: "old", CreatedAt: base.Add(-48 * time.Hour), CommentCount: 9},
		{Title: "new", CreatedAt: base, CommentCount: 1},
		{Title: "mid", CreatedAt: base.Add(-24 * time.Hour), CommentCount: 4},
	}

	SortRequests(reqs, SortByNewest)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{reqs[0].Title, reqs[1].Title, reqs[2].Title})

	SortRequests(reqs, SortByDiscussed)
	assert.Equal(t, []string{"old", "mid", "new"}, []string{reqs[0].Title, reqs[1].Title, reqs[2].Title})
}

func TestParseSortMode(t *testing.T) {
	mode, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortByVotes, mode)

	mode, err = ParseSortMode("Discussed")
	require.NoError(t, err)
	assert.Equal(t, SortByDiscussed, mode)

	_, err = ParseSortMode("hot")
	assert.ErrorIs(t, err, ErrInvalidSortMode)
}
