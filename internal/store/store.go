package store

import (
	"context"
	"errors"

	"github.com/mcdev12/timeshop/internal/models"
)

var (
	// ErrNotFound means no account exists for the username.
	ErrNotFound = errors.New("user not found")

	// ErrUserExists means the username is already taken.
	ErrUserExists = errors.New("user already exists")
)

// Store is the durable mapping behind the game: accounts, their state,
// the global playtime counter and card reviews. Implementations give
// last-write-wins semantics per key; there is deliberately no
// cross-account transaction surface.
type Store interface {
	// GetUser returns the stored account or ErrNotFound.
	GetUser(ctx context.Context, username string) (*models.User, error)

	// CreateUser stores a new account or fails with ErrUserExists.
	CreateUser(ctx context.Context, user models.User) error

	// PutUserState replaces the account's state wholesale.
	PutUserState(ctx context.Context, username string, state models.State) error

	// AddTotalTime adds delta seconds to the global counter and returns
	// the new total. Callers clamp: delta is never negative.
	AddTotalTime(ctx context.Context, delta int) (int, error)

	// TotalTime returns the current global counter.
	TotalTime(ctx context.Context) (int, error)

	// AppendReview stores one review.
	AppendReview(ctx context.Context, review models.Review) error

	// ReviewsByLevel returns all reviews for a level, newest first.
	ReviewsByLevel(ctx context.Context, level models.CardLevel) ([]models.Review, error)

	// Close releases the underlying resources.
	Close() error
}
