// Package reconcile applies client state snapshots to the store and
// keeps the global lifetime counter moving.
//
// A sync is at-most-once and non-transactional: the incoming snapshot
// replaces the stored one wholesale, last writer wins. Two tabs of the
// same account can race and the later (possibly smaller) snapshot
// sticks; the global counter only ever absorbs non-negative deltas, so
// that race never subtracts time.
package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeshop/internal/events"
	"github.com/mcdev12/timeshop/internal/models"
)

// Verifier checks the account credential.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (*models.User, error)
}

// StateStore is what the reconciler needs from the account store.
type StateStore interface {
	PutUserState(ctx context.Context, username string, state models.State) error
	AddTotalTime(ctx context.Context, delta int) (int, error)
}

// App is the server-side state reconciler.
type App struct {
	verifier  Verifier
	store     StateStore
	publisher events.Publisher
}

// NewApp creates the reconciler.
func NewApp(verifier Verifier, store StateStore, publisher events.Publisher) *App {
	return &App{verifier: verifier, store: store, publisher: publisher}
}

// Sync validates the credential, absorbs the snapshot's playtime delta
// into the global counter, replaces the stored state and publishes the
// new total. Returns the new global total.
func (a *App) Sync(ctx context.Context, username, password string, state models.State) (int, error) {
	user, err := a.verifier.Verify(ctx, username, password)
	if err != nil {
		return 0, err
	}

	// Clamp at zero: a snapshot that rolled backwards (client clock
	// reset, stale tab) contributes nothing and is never subtracted.
	delta := state.TotalSeconds - user.State.TotalSeconds
	if delta < 0 {
		delta = 0
	}

	total, err := a.store.AddTotalTime(ctx, delta)
	if err != nil {
		return 0, fmt.Errorf("add total time: %w", err)
	}

	if err := a.store.PutUserState(ctx, username, state); err != nil {
		return 0, fmt.Errorf("put state: %w", err)
	}

	if err := a.publisher.PublishGlobalTime(ctx, events.GlobalTimeUpdated{Total: total}); err != nil {
		// Broadcast failure does not undo the durable write.
		log.Error().Err(err).Msg("failed to publish global time")
	}

	log.Debug().
		Str("username", username).
		Int("delta", delta).
		Int("total_time", total).
		Msg("state synced")
	return total, nil
}
