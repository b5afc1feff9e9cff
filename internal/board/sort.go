package board

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

var ErrInvalidSortMode = errors.New("invalid sort mode")

type SortMode string

const (
	SortByVotes     SortMode = "votes"
	SortByNewest    SortMode = "newest"
	SortByDiscussed SortMode = "discussed"
)

// ParseSortMode defaults to SortByVotes for an empty string.
func ParseSortMode(raw string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return SortByVotes, nil
	case SortByVotes, SortByNewest, SortByDiscussed:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortMode, raw)
	}
}

// SortRequests orders requests in place, descending by the mode's key. Ties
// keep their input order, which is created_at desc when fed from the store.
func SortRequests(reqs []models.RequestSummary, mode SortMode) {
	var less func(i, j int) bool
	switch mode {
	case SortByNewest:
		less = func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) }
	case SortByDiscussed:
		less = func(i, j int) bool { return reqs[i].CommentCount > reqs[j].CommentCount }
	default:
		less = func(i, j int) bool { return reqs[i].VoteCount > reqs[j].VoteCount }
	}
	sort.SliceStable(reqs, less)
}
