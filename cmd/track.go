package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/releaseradar/internal/formatter"
	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/server"
	"github.com/desertthunder/releaseradar/internal/shared"
	"github.com/desertthunder/releaseradar/internal/tasks"
	"github.com/desertthunder/releaseradar/internal/ui"
	"github.com/urfave/cli/v3"
)

// trackOptsFromFlags merges command flags with config file defaults.
func (r *Runner) trackOptsFromFlags(cmd *cli.Command) tasks.TrackOpts {
	opts := tasks.TrackOpts{
		LookbackDays: r.config.Tracker.LookbackDays,
		MaxTracks:    r.config.Tracker.MaxTracks,
		NumWorkers:   r.config.Tracker.MaxWorkers,
		RateLimit:    r.config.Tracker.RateLimit,
		ForceRefresh: cmd.Bool("force-refresh"),
	}

	if v := cmd.Int("lookback"); v > 0 {
		opts.LookbackDays = int(v)
	}
	if v := cmd.Int("max-tracks"); v > 0 {
		opts.MaxTracks = int(v)
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float64("rate")
	}

	return opts
}

// writeReleases renders a release report to stdout or the --output file.
func (r *Runner) writeReleases(releases []models.Release, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	if output != "" {
		path, err := formatter.WriteReleases(releases, format, output)
		if err != nil {
			return err
		}
		r.writePlainln("✓ Report written to %s", path)
		return nil
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		return r.writeJSON(releases, true)
	case "csv":
		data, err = formatter.ExportToCSV(releases)
	case "markdown":
		data, err = formatter.ExportToMarkdown(releases)
	default:
		data, err = formatter.ExportToText(releases)
	}
	if err != nil {
		return err
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// startMetrics starts the Prometheus listener when configured.
// It shuts down when the returned context's parent is cancelled.
func (r *Runner) startMetrics(ctx context.Context) {
	if r.config.Metrics.Addr == "" {
		return
	}

	srv := server.NewMetricsServer(r.config.Metrics.Addr, r.logger, server.WithLogging(r.logger))
	go func() {
		if err := srv.Start(ctx); err != nil {
			r.logger.Warn("metrics server stopped", "error", err)
		}
	}()
}

// TrackRun discovers recent releases for every artist on the roster.
func (r *Runner) TrackRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	ids, err := r.artists.IDs()
	if err != nil {
		return fmt.Errorf("failed to read roster: %w", err)
	}
	if len(ids) == 0 {
		r.writePlainln("No artists tracked yet. Add some with 'artists add'.")
		return nil
	}

	opts := r.trackOptsFromFlags(cmd)

	if cmd.Bool("delta") {
		releases, err := r.engine.TrackNew(ctx, ids, opts.LookbackDays)
		if err != nil {
			return fmt.Errorf("delta run failed: %w", err)
		}
		r.logger.Info("delta run complete", "releases", len(releases))
		return r.writeReleases(releases, cmd)
	}

	if err := r.requireCatalog(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.startMetrics(runCtx)

	if cmd.Bool("ui") {
		model := ui.NewModel(runCtx, r.engine, ids, opts)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("UI error: %w", err)
		}
		result, err := model.Result()
		if err != nil {
			return err
		}
		if result == nil {
			return nil
		}
		return r.writeReleases(result.Releases, cmd)
	}

	prog := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range prog {
			switch update.Phase {
			case tasks.ArtistDone, tasks.ArtistFailed:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.TrackAll(runCtx, prog, ids, opts)
	close(prog)
	if err != nil {
		return fmt.Errorf("tracking run failed: %w", err)
	}

	r.logger.Info("run complete",
		"artists", result.ArtistsTracked,
		"releases", len(result.Releases),
		"api_calls", result.APICallsMade,
		"duration", result.Duration,
	)

	if err := r.writeReleases(result.Releases, cmd); err != nil {
		return err
	}

	if len(result.MissingArtistIDs) > 0 {
		r.writePlainln("No recent releases from %d artists", len(result.MissingArtistIDs))
	}

	return nil
}

// TrackArtist runs one-shot tracking for a single artist by name.
func (r *Runner) TrackArtist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: an artist name is required", shared.ErrMissingArgument)
	}

	artist, releases, err := r.engine.TrackArtistByName(ctx, name, r.trackOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	r.writePlainln("✓ %s (%s): %d releases", artist.Name, artist.ID, len(releases))
	return r.writeReleases(releases, cmd)
}

// TrackPlaylist runs one-shot tracking for every artist on a playlist.
func (r *Runner) TrackPlaylist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: a playlist ID is required", shared.ErrMissingArgument)
	}

	result, err := r.engine.TrackPlaylist(ctx, nil, playlistID, r.trackOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	r.writePlainln("✓ %d artists tracked, %d releases found", result.ArtistsTracked, len(result.Releases))
	return r.writeReleases(result.Releases, cmd)
}
