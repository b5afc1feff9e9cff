package feed

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

// Reconciler keeps a local, sorted copy of one week's request list and
// patches it from change events. Apply reports when an event cannot be
// applied as a delta; the caller then re-fetches and calls Reset.
//
// A Reconciler is not safe for concurrent use.
type Reconciler struct {
	viewer     uuid.UUID
	mode       board.SortMode
	start, end time.Time

	items   []models.RequestSummary
	authors map[uuid.UUID]models.Author
}

func NewReconciler(viewer uuid.UUID, mode board.SortMode, start, end time.Time) *Reconciler {
	return &Reconciler{
		viewer:  viewer,
		mode:    mode,
		start:   start,
		end:     end,
		authors: make(map[uuid.UUID]models.Author),
	}
}

// Reset replaces the list with a fresh fetch.
func (r *Reconciler) Reset(items []models.RequestSummary) {
	r.items = append([]models.RequestSummary(nil), items...)
	for _, it := range r.items {
		r.authors[it.UserID] = it.Author
	}
	board.SortRequests(r.items, r.mode)
}

// Items returns a copy of the current list.
func (r *Reconciler) Items() []models.RequestSummary {
	return append([]models.RequestSummary(nil), r.items...)
}

// Apply patches the list with e. It returns true when the list may now be
// wrong and must be re-fetched.
func (r *Reconciler) Apply(e Event) (refetch bool, err error) {
	if e.Bulk() {
		return true, nil
	}

	switch e.Table {
	case "product_requests":
		refetch, err = r.applyRequest(e)
	case "votes":
		err = r.applyVote(e)
	case "comments":
		err = r.applyComment(e)
	case "profiles":
		err = r.applyProfile(e)
	default:
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("error applying %s %s: %w", e.Table, e.Type, err)
	}
	if !refetch {
		board.SortRequests(r.items, r.mode)
	}
	return refetch, nil
}

func (r *Reconciler) find(id uuid.UUID) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Reconciler) inWindow(t time.Time) bool {
	return !t.Before(r.start) && !t.After(r.end)
}

func (r *Reconciler) applyRequest(e Event) (bool, error) {
	var row models.Request
	if err := e.Decode(&row); err != nil {
		return false, err
	}
	i := r.find(row.ID)

	switch e.Type {
	case Insert:
		if i >= 0 || !r.inWindow(row.CreatedAt) {
			return false, nil
		}
		author, ok := r.authors[row.UserID]
		if !ok {
			return true, nil
		}
		tags := []string(row.Tags)
		if tags == nil {
			tags = []string{}
		}
		r.items = append(r.items, models.RequestSummary{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Tags:        tags,
			UserID:      row.UserID,
			CreatedAt:   row.CreatedAt,
			Author:      author,
		})

	case Update:
		if i < 0 {
			return r.inWindow(row.CreatedAt), nil
		}
		r.items[i].Title = row.Title
		r.items[i].Description = row.Description
		r.items[i].Tags = []string(row.Tags)

	case Delete:
		if i >= 0 {
			r.items = append(r.items[:i], r.items[i+1:]...)
		}
	}
	return false, nil
}

// Votes and comments on requests outside the list are ignored: they cannot
// change which requests belong to the window.
func (r *Reconciler) applyVote(e Event) error {
	var cur, old models.Vote
	if err := e.Decode(&cur); err != nil {
		return err
	}
	if e.Type == Update {
		if err := e.DecodeOld(&old); err != nil {
			return err
		}
	}

	i := r.find(cur.RequestID)
	if i < 0 {
		return nil
	}
	it := &r.items[i]

	switch e.Type {
	case Insert:
		it.VoteCount += board.Weight(cur.Direction)
	case Update:
		it.VoteCount += board.Weight(cur.Direction) - board.Weight(old.Direction)
	case Delete:
		it.VoteCount -= board.Weight(cur.Direction)
	}

	if r.viewer != uuid.Nil && cur.UserID == r.viewer {
		if e.Type == Delete {
			it.UserVote = nil
		} else {
			d := cur.Direction
			it.UserVote = &d
		}
	}
	return nil
}

func (r *Reconciler) applyComment(e Event) error {
	var c models.Comment
	if err := e.Decode(&c); err != nil {
		return err
	}
	i := r.find(c.RequestID)
	if i < 0 {
		return nil
	}

	switch e.Type {
	case Insert:
		r.items[i].CommentCount++
	case Delete:
		if r.items[i].CommentCount > 0 {
			r.items[i].CommentCount--
		}
	}
	return nil
}

func (r *Reconciler) applyProfile(e Event) error {
	if e.Type == Delete {
		return nil
	}
	var p models.Profile
	if err := e.Decode(&p); err != nil {
		return err
	}

	author := board.AuthorOf(&p)
	r.authors[p.ID] = author
	for i := range r.items {
		if r.items[i].UserID == p.ID {
			r.items[i].Author = author
		}
	}
	return nil
}
