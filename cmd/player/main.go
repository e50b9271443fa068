// Command player is a headless Time Shop client: it signs in, runs the
// session loop against a server and optionally claims coins and draws
// cards as they become affordable.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeshop/internal/client"
	"github.com/mcdev12/timeshop/internal/game"
	"github.com/mcdev12/timeshop/internal/models"
	"github.com/mcdev12/timeshop/internal/session"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:6020", "server base URL")
		username  = flag.String("username", "", "account username")
		password  = flag.String("password", "", "account password")
		signup    = flag.Bool("signup", false, "create the account instead of logging in")
		hideCoins = flag.Bool("hide-coins", false, "hide the coin balance from other players")
		autoClaim = flag.Bool("auto-claim", true, "claim coin offers as they appear")
		autoDraw  = flag.Bool("auto-draw", false, "draw a card whenever the balance covers it")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if *username == "" || *password == "" {
		log.Fatal().Msg("both -username and -password are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := client.New(*serverURL)

	var (
		state models.State
		err   error
	)
	if *signup {
		state, err = api.Signup(ctx, *username, *password)
	} else {
		state, err = api.Login(ctx, *username, *password)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("authentication failed")
	}

	log.Info().
		Str("username", *username).
		Int("total_seconds", state.TotalSeconds).
		Int("coins", game.AvailableCoins(state.CoinsClaimed, state.CoinsSpent)).
		Int("cards", len(state.Cards)).
		Msg("signed in")

	presence, err := client.DialPresence(ctx, client.WSBaseURL(*serverURL))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open realtime channel")
	}
	defer presence.Close()

	presence.OnTotalTime = func(total int) {
		log.Info().Int("total", total).Msg("global playtime")
	}
	presence.OnOnlineUsers = func(users []models.Presence) {
		log.Info().Int("online", len(users)).Msg("presence roster")
	}
	go func() {
		if err := presence.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("realtime channel closed")
		}
	}()

	cfg := session.DefaultConfig(*username)
	cfg.HideCoins = *hideCoins
	runner := session.NewRunner(
		cfg,
		clockwork.NewRealClock(),
		session.ActivityFunc(func() bool { return true }),
		client.NewStateSyncer(api, *username, *password),
		presence,
		state,
	)
	go runner.Run(ctx)

	if *autoClaim || *autoDraw {
		go automate(ctx, runner, *autoClaim, *autoDraw)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("shutting down")
	cancel()

	final := runner.Snapshot()
	log.Info().
		Int("total_seconds", final.TotalSeconds).
		Int("cards", len(final.Cards)).
		Msg("session ended")
}

// automate polls the runner and plays greedily.
func automate(ctx context.Context, runner *session.Runner, claim, draw bool) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if claim && runner.CoinPending() {
				if err := runner.Claim(ctx); err != nil && !errors.Is(err, session.ErrNoCoinPending) {
					log.Warn().Err(err).Msg("claim failed")
				}
			}
			if draw && runner.AvailableCoins() >= game.DrawCost {
				level, err := runner.Draw(ctx)
				if err != nil {
					if !errors.Is(err, session.ErrNotEnoughCoins) {
						log.Warn().Err(err).Msg("draw failed")
					}
					continue
				}
				log.Info().Str("card", string(level)).Msg("drew a card")
			}
		}
	}
}
