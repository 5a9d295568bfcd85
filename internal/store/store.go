// Package store is the data gateway: the only package that talks to
// the database. Handlers and workflows receive a *Store explicitly;
// there is no process-wide instance.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")

	// CreateBid precondition failures, checked in order.
	ErrJobClosed      = errors.New("job is not active")
	ErrNotBidder      = errors.New("bidder does not match caller")
	ErrBadAmount      = errors.New("bid amount must be positive")
	ErrRoleNotAllowed = errors.New("role may not bid")

	ErrNotParticipant = errors.New("user is not a participant of this chat")

	// ErrConflict is returned when a guarded update hits zero rows,
	// e.g. two contractors closing the same job at once.
	ErrConflict = errors.New("conflicting concurrent update")
)

type Store struct {
	db *gorm.DB

	watch *watchRegistry
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, watch: newWatchRegistry()}
}

// DB exposes the underlying handle for migrations in main.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
