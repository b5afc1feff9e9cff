// Package store holds the board's queries and writes on top of gorm.
package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("not the owner of this record")
	ErrDuplicate = errors.New("record already exists")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// wrap maps gorm and driver errors onto the store's sentinels.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// ensureProfile creates the user's profile on their first write. Concurrent
// first writes race on the insert; the loser does nothing.
func ensureProfile(tx *gorm.DB, user models.User) error {
	p := DefaultProfile(user)
	return wrap("create profile", tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error)
}

// DefaultProfile derives a username from the email's local part and a
// placeholder avatar coloured from the user id.
func DefaultProfile(user models.User) models.Profile {
	username := user.Email
	if i := strings.IndexByte(username, '@'); i >= 0 {
		username = username[:i]
	}
	if username == "" {
		username = "Anonymous"
	}

	color := uint32(user.ID[0])<<16 | uint32(user.ID[1])<<8 | uint32(user.ID[2])
	return models.Profile{
		ID:        user.ID,
		Username:  username,
		AvatarURL: fmt.Sprintf("https://dummyimage.com/150/%06x/ffffff&text=%s", color, strings.ToUpper(string([]rune(username)[:1]))),
	}
}
