// Package reviews handles card review submission and listing.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/timeshop/internal/models"
)

// ErrBadRequest means a missing/empty field or an invalid card level.
var ErrBadRequest = errors.New("bad request")

// Verifier checks the submitting account's credential.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (*models.User, error)
}

// ReviewStore is what reviews needs from the account store.
type ReviewStore interface {
	AppendReview(ctx context.Context, review models.Review) error
	ReviewsByLevel(ctx context.Context, level models.CardLevel) ([]models.Review, error)
}

// App handles review submission and listing.
type App struct {
	verifier Verifier
	store    ReviewStore
	clock    clockwork.Clock
}

// NewApp creates the reviews App with a real clock.
func NewApp(verifier Verifier, store ReviewStore) *App {
	return &App{verifier: verifier, store: store, clock: clockwork.NewRealClock()}
}

// WithClock swaps the timestamp source. For tests.
func (a *App) WithClock(clock clockwork.Clock) *App {
	a.clock = clock
	return a
}

// Submit validates and stores one review.
func (a *App) Submit(ctx context.Context, username, password, cardLevel, text string) error {
	text = strings.TrimSpace(text)
	if cardLevel == "" || text == "" {
		return ErrBadRequest
	}

	if _, err := a.verifier.Verify(ctx, username, password); err != nil {
		return err
	}

	level, err := models.ParseLevel(cardLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	review := models.Review{
		Level:     level,
		Username:  username,
		Text:      text,
		CreatedAt: a.clock.Now().UTC(),
	}
	if err := a.store.AppendReview(ctx, review); err != nil {
		return fmt.Errorf("append review: %w", err)
	}
	return nil
}

// ByLevel lists reviews for one level, newest first.
func (a *App) ByLevel(ctx context.Context, rawLevel string) (models.CardLevel, []models.Review, error) {
	level, err := models.ParseLevel(rawLevel)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	reviews, err := a.store.ReviewsByLevel(ctx, level)
	if err != nil {
		return "", nil, fmt.Errorf("reviews by level: %w", err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return level, reviews, nil
}
