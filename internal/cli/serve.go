// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Forwarding server command for the grokchat CLI.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/grokchat/internal/config"
	"github.com/jeranaias/grokchat/internal/relay"
)

// HandleServe handles the "serve" command.
func HandleServe(args Args) {
	if err := HandleServeCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleServeCommand starts the forwarding server and blocks until
// SIGINT or SIGTERM, then shuts down gracefully.
func HandleServeCommand(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	relayCfg := relay.Config{
		ListenAddr:         cfg.Relay.Listen,
		Endpoint:           cfg.Chat.Endpoint,
		Model:              cfg.Chat.Model,
		AllowedOrigins:     cfg.Relay.AllowedOrigins,
		StaticDir:          cfg.Relay.StaticDir,
		RateLimitPerMinute: cfg.Relay.RateLimitPerMinute,
	}
	if args.Listen != "" {
		relayCfg.ListenAddr = args.Listen
	}
	if args.StaticDir != "" {
		relayCfg.StaticDir = args.StaticDir
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "relay",
	})
	if args.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	srv := relay.NewServer(relayCfg, logger)

	// Model changes in config.toml take effect without a restart.
	if path, pathErr := config.ConfigPath(); pathErr == nil {
		watcher, watchErr := config.Watch(path, func(updated *config.Config) {
			srv.SetModel(updated.Chat.Model)
			logger.Info("config reloaded", "model", updated.Chat.Model)
		})
		if watchErr != nil {
			logger.Warn("config watch unavailable", "error", watchErr)
		} else {
			defer watcher.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("forwarding server started",
		"listen", relayCfg.ListenAddr,
		"upstream", relayCfg.Endpoint,
		"model", relayCfg.Model)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
