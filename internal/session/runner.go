// Package session drives the client side of the protocol: the
// 1-second tick loop, coin-threshold evaluation with its claim window,
// draws, and the flush/presence cadence. The server cannot verify any
// of it; the activity predicate is advisory and locally computed.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeshop/internal/game"
	"github.com/mcdev12/timeshop/internal/models"
)

// ErrNotEnoughCoins means the balance does not cover a draw.
var ErrNotEnoughCoins = errors.New("not enough coins")

// ErrNoCoinPending means Claim was called with no open offer.
var ErrNoCoinPending = errors.New("no coin pending")

// Activity reports whether this second counts as active playtime.
type Activity interface {
	Active() bool
}

// ActivityFunc adapts a func to Activity.
type ActivityFunc func() bool

// Active implements Activity.
func (f ActivityFunc) Active() bool { return f() }

// Syncer pushes the full state snapshot to the server.
type Syncer interface {
	Sync(ctx context.Context, state models.State) error
}

// PresenceReporter publishes the lightweight presence snapshot.
type PresenceReporter interface {
	Report(ctx context.Context, p models.Presence) error
}

// Config holds the runner tunables.
type Config struct {
	Username string

	// CoinInterval is the active time between coin events.
	CoinInterval time.Duration
	// CoinWindow is how long a spawned coin stays claimable.
	CoinWindow time.Duration
	// FlushEvery is the number of active seconds between forced syncs.
	FlushEvery int
	// PresenceEvery is the number of active ticks between presence
	// reports. Claims, draws and coin events always report immediately.
	PresenceEvery int

	DrawTable game.DrawTable
	HideCoins bool
}

// DefaultConfig returns the stock cadence.
func DefaultConfig(username string) Config {
	return Config{
		Username:      username,
		CoinInterval:  game.DefaultCoinInterval,
		CoinWindow:    game.DefaultCoinWindow,
		FlushEvery:    10,
		PresenceEvery: 5,
		DrawTable:     game.DefaultDrawTable(),
	}
}

// Runner owns one account's session.
type Runner struct {
	cfg      Config
	clock    clockwork.Clock
	activity Activity
	syncer   Syncer
	presence PresenceReporter

	mu                sync.Mutex
	state             models.State
	coinPending       bool
	coinTimer         clockwork.Timer
	secondsSinceFlush int
	presenceTicks     int
}

// NewRunner creates a runner resuming from state (as returned by
// login or signup).
func NewRunner(cfg Config, clock clockwork.Clock, activity Activity, syncer Syncer, presence PresenceReporter, state models.State) *Runner {
	if cfg.CoinInterval <= 0 {
		cfg.CoinInterval = game.DefaultCoinInterval
	}
	if cfg.CoinWindow <= 0 {
		cfg.CoinWindow = game.DefaultCoinWindow
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 10
	}
	if cfg.PresenceEvery <= 0 {
		cfg.PresenceEvery = 5
	}
	if len(cfg.DrawTable) == 0 {
		cfg.DrawTable = game.DefaultDrawTable()
	}
	if state.Cards == nil {
		state.Cards = []models.CardLevel{}
	}
	return &Runner{
		cfg:      cfg,
		clock:    clock,
		activity: activity,
		syncer:   syncer,
		presence: presence,
		state:    state,
	}
}

// Run ticks once per second until ctx is cancelled. The re-scheduling
// is unconditional; only the accounting inside tick is gated on the
// activity predicate, so counting resumes the instant activity does.
func (r *Runner) Run(ctx context.Context) {
	log.Info().Str("username", r.cfg.Username).Msg("session started")
	for {
		select {
		case <-ctx.Done():
			r.cancelCoinTimer()
			log.Info().Str("username", r.cfg.Username).Msg("session stopped")
			return
		case <-r.clock.After(time.Second):
			r.tick(ctx)
		}
	}
}

// tick is one loop iteration.
func (r *Runner) tick(ctx context.Context) {
	r.mu.Lock()
	var flushNow, reportNow bool
	if r.activity.Active() {
		r.state.TotalSeconds++
		r.secondsSinceFlush++
		r.presenceTicks++

		if r.secondsSinceFlush >= r.cfg.FlushEvery {
			r.secondsSinceFlush = 0
			flushNow = true
		}
		if r.presenceTicks >= r.cfg.PresenceEvery {
			r.presenceTicks = 0
			reportNow = true
		}
	}
	state := r.state
	presence := r.presenceLocked()
	r.mu.Unlock()

	if flushNow {
		r.flush(ctx, state)
	}
	if reportNow {
		r.report(ctx, presence)
	}

	r.maybeSpawnCoin(ctx)
}

// maybeSpawnCoin fires a coin event when a new threshold was crossed
// and no offer is already open.
func (r *Runner) maybeSpawnCoin(ctx context.Context) {
	r.mu.Lock()
	fired, newTriggered := game.EvaluateThreshold(
		r.state.TotalSeconds,
		r.state.CoinEventsTriggered,
		int(r.cfg.CoinInterval/time.Second),
		r.coinPending,
	)
	if !fired {
		r.mu.Unlock()
		return
	}
	r.state.CoinEventsTriggered = newTriggered
	r.coinPending = true
	timer := r.clock.NewTimer(r.cfg.CoinWindow)
	r.coinTimer = timer
	state := r.state
	presence := r.presenceLocked()
	r.mu.Unlock()

	log.Info().
		Str("username", r.cfg.Username).
		Int("threshold", newTriggered).
		Msg("coin ready to claim")

	go func() {
		select {
		case <-timer.Chan():
			r.expireCoin()
		case <-ctx.Done():
			stopAndDrainTimer(timer)
		}
	}()

	r.flush(ctx, state)
	r.report(ctx, presence)
}

// expireCoin withdraws an unclaimed offer. No penalty, no retry; the
// account waits for the next threshold crossing.
func (r *Runner) expireCoin() {
	r.mu.Lock()
	if !r.coinPending {
		r.mu.Unlock()
		return
	}
	r.coinPending = false
	r.coinTimer = nil
	r.mu.Unlock()

	log.Info().Str("username", r.cfg.Username).Msg("coin offer expired unclaimed")
}

// Claim collects the pending coin.
func (r *Runner) Claim(ctx context.Context) error {
	r.mu.Lock()
	if !r.coinPending {
		r.mu.Unlock()
		return ErrNoCoinPending
	}
	r.coinPending = false
	if r.coinTimer != nil {
		stopAndDrainTimer(r.coinTimer)
		r.coinTimer = nil
	}
	r.state.CoinsClaimed++
	state := r.state
	presence := r.presenceLocked()
	r.mu.Unlock()

	log.Info().Str("username", r.cfg.Username).Msg("coin claimed")
	r.flush(ctx, state)
	r.report(ctx, presence)
	return nil
}

// Draw spends DrawCost coins on one card.
func (r *Runner) Draw(ctx context.Context) (models.CardLevel, error) {
	r.mu.Lock()
	if !game.CanDraw(r.state.CoinsClaimed, r.state.CoinsSpent) {
		r.mu.Unlock()
		return "", ErrNotEnoughCoins
	}
	level, ok := r.cfg.DrawTable.Draw()
	if !ok {
		r.mu.Unlock()
		return "", errors.New("draw table is empty")
	}
	r.state.CoinsSpent += game.DrawCost
	r.state.Cards = append(r.state.Cards, level)
	state := r.state
	presence := r.presenceLocked()
	r.mu.Unlock()

	log.Info().
		Str("username", r.cfg.Username).
		Str("result", string(level)).
		Msg("card drawn")
	r.flush(ctx, state)
	r.report(ctx, presence)
	return level, nil
}

// CoinPending reports whether a claimable offer is open.
func (r *Runner) CoinPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coinPending
}

// Snapshot returns a copy of the current state.
func (r *Runner) Snapshot() models.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AvailableCoins returns the derived spendable balance.
func (r *Runner) AvailableCoins() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return game.AvailableCoins(r.state.CoinsClaimed, r.state.CoinsSpent)
}

// presenceLocked builds the presence snapshot. Caller holds mu.
func (r *Runner) presenceLocked() models.Presence {
	return models.Presence{
		Username:     r.cfg.Username,
		TotalSeconds: r.state.TotalSeconds,
		Coins:        game.AvailableCoins(r.state.CoinsClaimed, r.state.CoinsSpent),
		LastCards:    r.state.LastCards(3),
		HideCoins:    r.cfg.HideCoins,
	}
}

// flush pushes state to the server. Failures are logged and dropped;
// a later flush carrying a larger cumulative value makes up for it.
func (r *Runner) flush(ctx context.Context, state models.State) {
	if r.syncer == nil {
		return
	}
	if err := r.syncer.Sync(ctx, state); err != nil {
		log.Warn().Err(err).Str("username", r.cfg.Username).Msg("state sync failed")
	}
}

func (r *Runner) report(ctx context.Context, p models.Presence) {
	if r.presence == nil {
		return
	}
	if err := r.presence.Report(ctx, p); err != nil {
		log.Warn().Err(err).Str("username", r.cfg.Username).Msg("presence report failed")
	}
}

func (r *Runner) cancelCoinTimer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coinTimer != nil {
		stopAndDrainTimer(r.coinTimer)
		r.coinTimer = nil
	}
	r.coinPending = false
}

// stopAndDrainTimer safely stops a timer and drains its channel so the
// waiting goroutine does not fire on a superseded offer.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
