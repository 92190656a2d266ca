package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/config"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/posiflow"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/server"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/store"
	"github.com/emanuelhvd/posiflow-telegram-connector/pkg/telegram"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	log = log.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid redis URL")
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Redis unreachable")
	}
	defer rdb.Close()

	tg := telegram.NewClient(cfg.TelegramAPIURL, log)
	srv := server.New(cfg, server.Deps{
		Settings: store.NewRedisStore(rdb),
		Outbound: tg,
		Media:    tg,
		Webhooks: tg,
		Channel:  posiflow.NewClient(cfg.APIURL, log),
		Apps:     posiflow.NewAppsClient(cfg.AppsAPIURL),
	}, log)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("base_url", cfg.BaseURL).
			Msg("Telegram connector listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown incomplete")
	}
}
