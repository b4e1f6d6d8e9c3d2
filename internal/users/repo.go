package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no profile exists for the id.
var ErrNotFound = errors.New("user not found")

// Repo stores profiles keyed by the auth subject.
type Repo interface {
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
}
