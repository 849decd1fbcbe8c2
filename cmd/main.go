package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/releaseradar/internal/metrics"
	"github.com/desertthunder/releaseradar/internal/services"
	"github.com/desertthunder/releaseradar/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var catalog services.Catalog
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyCatalog(
			ctx,
			config.Credentials.Spotify.ClientID,
			config.Credentials.Spotify.ClientSecret,
		); err == nil {
			catalog = svc
		}
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	runner := NewRunner(RunnerOpts{
		Config:   config,
		DB:       db,
		Catalog:  catalog,
		Logger:   logger,
		Profiler: metrics.NewSink(),
	})

	app := &cli.Command{
		Name:     "releaseradar",
		Usage:    "Track new releases from artists you follow",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
