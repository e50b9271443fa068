package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeshop/internal/auth"
	"github.com/mcdev12/timeshop/internal/config"
	"github.com/mcdev12/timeshop/internal/events"
	"github.com/mcdev12/timeshop/internal/gateway"
	"github.com/mcdev12/timeshop/internal/reconcile"
	"github.com/mcdev12/timeshop/internal/reviews"
	"github.com/mcdev12/timeshop/internal/server"
	"github.com/mcdev12/timeshop/internal/store"
	"github.com/mcdev12/timeshop/internal/store/jsonfile"
	"github.com/mcdev12/timeshop/internal/store/postgres"
	"github.com/mcdev12/timeshop/internal/store/sqlite"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	log.Info().
		Str("backend", cfg.Store.Backend).
		Int("port", cfg.Port).
		Bool("nats", cfg.NATS.Enabled).
		Msg("starting time shop server")

	// Realtime layer: presence registry plus the broadcast fan-out.
	registry := gateway.NewRegistry()
	connManager := gateway.NewConnectionManager(
		gateway.DefaultConnectionConfig(),
		registry,
		func(ctx context.Context) (int, error) { return st.TotalTime(ctx) },
	)
	wsHandler := gateway.NewWebSocketHandler(connManager)
	go connManager.Start(ctx)

	// Global-time updates flow from the reconciler to every connected
	// client. A lone instance uses the in-process bus; with NATS enabled
	// the update makes a round trip through the subject so instances
	// sharing a database broadcast each other's syncs too.
	var publisher events.Publisher
	broadcast := func(ev events.GlobalTimeUpdated) {
		connManager.BroadcastTotalTime(ev.Total)
	}
	if cfg.NATS.Enabled {
		natsCfg := events.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		if cfg.NATS.Subject != "" {
			natsCfg.Subject = cfg.NATS.Subject
		}
		relay, err := events.NewNATSRelay(natsCfg, broadcast)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect NATS relay")
		}
		defer relay.Close()
		publisher = relay
	} else {
		bus := events.NewBus()
		bus.Subscribe(broadcast)
		publisher = bus
	}

	authApp := auth.NewApp(st)
	reconcileApp := reconcile.NewApp(authApp, st, publisher)
	reviewsApp := reviews.NewApp(authApp, st)

	srv := server.New(authApp, reconcileApp, reviewsApp, wsHandler)
	httpServer := srv.HTTPServer(cfg.Port)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()

	log.Info().Msg("time shop server shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		return sqlite.Open(cfg.Store.Path)
	case config.StorePostgres:
		return postgres.Open(ctx, cfg.Store.DSN)
	default:
		return jsonfile.Open(cfg.Store.Path)
	}
}
