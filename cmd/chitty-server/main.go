package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/chitty/internal/app"
	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to chitty.toml (defaults to CHITTY_CONFIG, then the binary directory)")
	importUsers := flag.String("import-users", "", "JSON file of users to import before serving")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	common.PrintBanner(a.Config, a.Logger)

	if *importUsers != "" {
		imported, skipped, err := app.ImportUsersFromFile(context.Background(), a.Storage.InternalStore(), a.Logger, *importUsers)
		if err != nil {
			a.Logger.Error().Err(err).Str("file", *importUsers).Msg("User import failed")
		} else {
			a.Logger.Info().Int("imported", imported).Int("skipped", skipped).Msg("User import complete")
		}
	}

	// Start background services
	a.StartWarmAnalytics()
	a.StartRecalcSweeper()

	srv := server.NewServer(a)

	// The shutdown endpoint signals here in dev mode
	shutdownChan := make(chan struct{}, 1)
	srv.SetShutdownChannel(shutdownChan)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	port := a.Config.Server.Port
	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", port)).
		Str("mcp", fmt.Sprintf("http://localhost:%d/mcp", port)).
		Msg("Server ready")

	// Wait for interrupt signal or API-requested shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		a.Logger.Info().Msg("Shutdown signal received")
	case <-shutdownChan:
		a.Logger.Info().Msg("Shutdown requested via API")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.Close()
	common.PrintShutdownBanner(a.Logger)
}
