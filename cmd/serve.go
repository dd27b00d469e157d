package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yellcord/realtime/internal/adapters/httpapi"
	"github.com/yellcord/realtime/internal/adapters/postgres"
	"github.com/yellcord/realtime/internal/adapters/ws"
	"github.com/yellcord/realtime/internal/app"
	"github.com/yellcord/realtime/internal/auth"
	"github.com/yellcord/realtime/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the realtime server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	store, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	// One registry instance for the whole process, injected everywhere.
	registry := app.NewRegistry()
	bus := app.NewBroadcaster(registry, app.KickPolicy{})
	authz := app.NewAuthorizer(store, cfg.MembershipCacheTTL)
	calls := app.NewCallRelay(registry, authz, bus)
	ingest := app.NewIngest(authz, store, bus)
	verifier := auth.NewVerifier(cfg.Secret)

	ctl := ws.NewController(cfg, registry, bus, authz, calls, ingest, store, verifier)
	r := httpapi.SetupRouter(ctx, cfg, ctl, bus)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("realtime server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
	return nil
}
