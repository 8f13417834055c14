// Package main provides the entry point for the recordstore server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gustavo-moliveira/recordstore/internal/config"
	"github.com/gustavo-moliveira/recordstore/internal/server"
	"github.com/gustavo-moliveira/recordstore/internal/watcher"
)

var Version = "dev"

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	settingsPath := config.SettingsPath()
	cfg, err := config.Load(settingsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("version", Version).
		Msg("Starting recordstore server")

	svc, err := server.NewService(cfg, Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create service")
	}

	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start service")
	}

	// Restart on settings change; the supervisor brings us back up with the
	// new configuration.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	cfgWatcher, err := watcher.New(settingsPath, func() {
		log.Warn().Str("path", settingsPath).Msg("Settings changed, triggering restart")
		select {
		case quit <- syscall.SIGTERM:
		default:
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
	} else if err := cfgWatcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start settings watcher")
	}

	<-quit
	log.Info().Msg("Received shutdown signal")

	if cfgWatcher != nil {
		_ = cfgWatcher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}

	log.Info().Msg("Server shutdown complete")
}
