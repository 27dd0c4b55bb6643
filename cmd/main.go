package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"therapy-session-service/internal/app"
	"therapy-session-service/internal/config"
	"therapy-session-service/internal/events"
	apphttp "therapy-session-service/internal/http"
	"therapy-session-service/internal/observability"
	"therapy-session-service/internal/service/ai/openai"
	"therapy-session-service/internal/service/pipeline"
	"therapy-session-service/internal/store"
	filestore "therapy-session-service/internal/store/file"
	"therapy-session-service/internal/store/postgres"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	defer application.Shutdown()

	sessions, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open session store")
	}
	defer sessions.Close(context.Background())

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Service.Principal,
	})
	defer publisher.Close()

	adapter := openai.New(cfg.OpenAI)

	processor := pipeline.New(pipeline.Deps{
		Transcriber: adapter,
		Labeler:     adapter,
		Summarizer:  adapter,
		Embedder:    adapter,
		Store:       sessions,
		Publisher:   publisher,
		UploadDir:   cfg.Upload.Dir,
	})

	handler := apphttp.NewSessionHandler(processor, sessions, adapter, cfg.Upload.MaxBytes)

	metricsServer := observability.NewServer(":" + cfg.Service.MetricsPort)
	metricsServer.Start()

	server := &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: apphttp.NewRouter(handler),
	}

	go func() {
		log.Info().Str("port", cfg.Service.HTTPPort).Msg("Therapy session service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
}

func openStore(cfg *config.Configuration) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return postgres.New(ctx, cfg.Store.DatabaseURL, cfg.OpenAI.EmbeddingDimensions)
	case "file":
		return filestore.New(cfg.Store.DataDir)
	default:
		return nil, errors.New("unknown store backend: " + cfg.Store.Backend)
	}
}
