package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no row matches the ID.
	ErrNotFound = errors.New("user not found")
	// ErrInvalid is returned for identities missing an ID or email.
	ErrInvalid = errors.New("user id and email are required")
)

// Repo persists users.
type Repo interface {
	// Upsert creates or refreshes the user, returning the stored row and
	// whether it was new.
	Upsert(ctx context.Context, user User) (User, bool, error)
	GetByID(ctx context.Context, userID string) (User, error)
}
