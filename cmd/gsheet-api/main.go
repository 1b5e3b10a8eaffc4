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
	"github.com/rs/zerolog"

	"gsheet-api/internal/config"
	"gsheet-api/internal/gsheet"
	"gsheet-api/internal/notify"
	"gsheet-api/internal/server"
	"gsheet-api/internal/sheets"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log = newLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sheetsClient, err := sheets.New(context.Background(), cfg.GoogleCredentials, sheets.Options{
		Breaker:        cfg.UpstreamBreaker,
		BreakerTimeout: cfg.UpstreamBreakerTimeout,
		Logger:         log.With().Str("component", "sheets").Logger(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sheets")
	}
	if err := sheetsClient.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("account", cfg.ServiceAccount).Msg("google api not reachable yet")
	}

	var alerts notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramAlertChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram")
		}
		alerts = tg
	}

	svc := gsheet.New(sheetsClient, gsheet.Options{
		MaxColumns:     cfg.MaxColumns,
		DefaultPerPage: cfg.DefaultPerPage,
		SkipBlankRows:  cfg.SkipBlankRows,
	}, log.With().Str("component", "gsheet").Logger())

	httpSrv := server.New(cfg, svc, log, alerts)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("account", cfg.ServiceAccount).Msg("gsheet-api listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if err := httpSrv.Shutdown(ctxTimeout); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("bye")
}

func newLogger(cfg config.Config) zerolog.Logger {
	w := os.Stderr
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.LogFormat == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
