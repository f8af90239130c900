package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"reelgen/backend/internal/api"
	"reelgen/backend/internal/config"
	"reelgen/backend/internal/fal"
	"reelgen/backend/internal/generation"
	"reelgen/backend/internal/logging"
	"reelgen/backend/internal/replicate"
	"reelgen/backend/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("production")
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.AppEnv)

	store, err := storage.NewStore(cfg.StorageRoot, cfg.PublicBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("root", cfg.StorageRoot).Msg("storage")
	}

	backend, closeBackend, err := newBackend(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("generation backend")
	}
	defer closeBackend()

	gen := generation.NewClient(backend, generation.Options{
		ImageModelID: cfg.ImageModelID,
		VideoModelID: cfg.VideoModelID,
		Timeout:      cfg.GenerationTimeout,
	})
	srv := api.NewServer(store, gen, api.Defaults{
		Prompt:     cfg.DefaultPrompt,
		ImageCount: cfg.DefaultImageCount,
	}, logger, cfg.RateLimitPerMin)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}).Handler(srv.Routes())

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("provider", cfg.Provider).
			Str("storage_root", cfg.StorageRoot).
			Msg("api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("server stopped")
}

func newBackend(cfg *config.Config, logger zerolog.Logger) (generation.Backend, func(), error) {
	switch cfg.Provider {
	case config.ProviderReplicate:
		repl, err := replicate.New(cfg.ReplicateToken)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("image_model", cfg.ImageModelID).Str("video_model", cfg.VideoModelID).Msg("replicate backend configured")
		return repl, func() {}, nil
	default:
		fc, err := fal.New(fal.Options{
			APIKey:     cfg.FalAPIKey,
			RunURL:     cfg.FalRunURL,
			StorageURL: cfg.FalStorageURL,
			Timeout:    cfg.GenerationTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("image_model", cfg.ImageModelID).Str("video_model", cfg.VideoModelID).Msg("fal backend configured")
		return fc, func() { _ = fc.Close() }, nil
	}
}
