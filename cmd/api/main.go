package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dyuan/voiceledger/internal/aikey"
	"github.com/dyuan/voiceledger/internal/api"
	"github.com/dyuan/voiceledger/internal/config"
	"github.com/dyuan/voiceledger/internal/inference"
	"github.com/dyuan/voiceledger/internal/ledger"
	"github.com/dyuan/voiceledger/internal/logger"
	"github.com/dyuan/voiceledger/internal/session"
	"github.com/dyuan/voiceledger/internal/storage"
)

func main() {
	dotenvMissing := false
	if err := godotenv.Load(); err != nil {
		dotenvMissing = true
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.ParseLevel(cfg.App.LogLevel))
	if dotenvMissing {
		log.Debug().Msg("No .env file found, relying on environment")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone configuration")
	}

	slot, err := storage.NewFileSlot(cfg.App.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data directory")
	}

	store := ledger.NewStore(slot, log)
	store.Load()
	log.Info().Int("transactions", store.Len()).Msg("Ledger loaded")

	resolver := aikey.NewResolver(aikey.DefaultProbes(slot)...)
	if _, source := resolver.Resolve(); source == aikey.SourceMissing {
		log.Warn().Msg("No Gemini API key configured - classification will fail until one is set")
	} else {
		log.Info().Str("key_source", source).Msg("Gemini API key resolved")
	}

	client := inference.NewClient(resolver, cfg.Inference.Model, cfg.Inference.Timeout, log)
	sess := session.New(store, log)
	handler := api.NewHandler(store, sess, client, resolver, slot, loc, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      api.NewRouter(handler, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.Inference.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.App.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
