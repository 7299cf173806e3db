package main

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

	router "github.com/aurachat/voice/internal/adapters/http"
	"github.com/aurachat/voice/internal/app"
	"github.com/aurachat/voice/internal/config"
	"github.com/aurachat/voice/internal/core"
	"github.com/aurachat/voice/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open channel store")
	}
	defer db.Close()

	channels := store.NewChannels(db)
	registry := core.NewRegistry(channels)
	directory := app.NewDirectory()
	relay := app.NewRelay(registry, directory)
	lifecycle := &app.Lifecycle{
		Registry:  registry,
		Directory: directory,
		Users:     store.NewUsers(db),
		Store:     channels,
	}
	if err := lifecycle.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to restore channels")
	}

	r := router.SetupRouter(ctx, cfg, lifecycle, relay)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("aura-voice relay started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
