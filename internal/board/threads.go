package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

var (
	ErrParentNotFound = errors.New("parent comment not found")
	ErrNestedReply    = errors.New("replies can only target top-level comments")
)

// Thread is a top-level comment with its direct replies.
type Thread struct {
	models.Comment
	Author  models.Author `json:"author"`
	Replies []Reply       `json:"replies"`
}

type Reply struct {
	models.Comment
	Author models.Author `json:"author"`
}

// MalformedThreadError lists comments that could not be placed under a
// top-level parent.
type MalformedThreadError struct {
	IDs []uuid.UUID
}

func (e *MalformedThreadError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%d comments have no top-level parent: %s", len(e.IDs), strings.Join(ids, ", "))
}

// AssembleThreads partitions a flat comment list into top-level comments and
// their direct replies, both in input order. Replies pointing at a missing or
// non-top-level parent are left out and reported through a
// *MalformedThreadError; the threads that could be built are still returned.
func AssembleThreads(comments []models.Comment) ([]Thread, error) {
	threads := make([]Thread, 0, len(comments))
	index := make(map[uuid.UUID]int, len(comments))

	for _, c := range comments {
		if !c.IsTopLevel() {
			continue
		}
		index[c.ID] = len(threads)
		threads = append(threads, Thread{Comment: c, Author: AuthorOf(c.Profile), Replies: []Reply{}})
	}

	var orphans []uuid.UUID
	for _, c := range comments {
		if c.IsTopLevel() {
			continue
		}
		i, ok := index[*c.ParentID]
		if !ok {
			orphans = append(orphans, c.ID)
			continue
		}
		threads[i].Replies = append(threads[i].Replies, Reply{Comment: c, Author: AuthorOf(c.Profile)})
	}

	if len(orphans) > 0 {
		return threads, &MalformedThreadError{IDs: orphans}
	}
	return threads, nil
}

// ValidateReplyTarget checks that parent can receive a reply on requestID.
func ValidateReplyTarget(parent *models.Comment, requestID uuid.UUID) error {
	if parent == nil || parent.RequestID != requestID {
		return ErrParentNotFound
	}
	if !parent.IsTopLevel() {
		return ErrNestedReply
	}
	return nil
}

// AuthorOf renders a profile for display; missing profiles are anonymous.
func AuthorOf(p *models.Profile) models.Author {
	if p == nil || p.Username == "" {
		return models.Author{Username: "Anonymous"}
	}
	return models.Author{Username: p.Username, AvatarURL: p.AvatarURL}
}
