package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/releaseradar/internal/repositories"
	"github.com/desertthunder/releaseradar/internal/services"
	"github.com/desertthunder/releaseradar/internal/shared"
	"github.com/desertthunder/releaseradar/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	db        *sql.DB
	catalog   services.Catalog
	artists   *repositories.ArtistRepository
	releases  *repositories.ReleaseCacheRepository
	crossRefs *repositories.CrossRefRepository
	runs      *repositories.RunRepository
	engine    *tasks.TrackerEngine
	logger    *log.Logger
	output    io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	DB       *sql.DB
	Catalog  services.Catalog
	Logger   *log.Logger
	Output   io.Writer
	Profiler tasks.Profiler
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:  opts.Config,
		db:      opts.DB,
		catalog: opts.Catalog,
		logger:  opts.Logger,
		output:  opts.Output,
	}

	if opts.DB != nil {
		r.artists = repositories.NewArtistRepository(opts.DB)
		r.releases = repositories.NewReleaseCacheRepository(opts.DB)
		r.crossRefs = repositories.NewCrossRefRepository(opts.DB)
		r.runs = repositories.NewRunRepository(opts.DB)
	}

	r.engine = tasks.NewTrackerEngine(tasks.EngineConfig{
		Catalog:    opts.Catalog,
		Releases:   r.releases,
		CrossRefs:  r.crossRefs,
		Runs:       r.runs,
		Logger:     opts.Logger,
		Profiler:   opts.Profiler,
		MaxRetries: opts.Config.Tracker.MaxRetries,
	})

	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, artistsCommand, trackCommand, cacheCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireDB guards actions that need the database to be initialized.
func (r *Runner) requireDB() error {
	if r.db == nil {
		return fmt.Errorf("%w: database not initialized, run 'setup' first", shared.ErrDatabase)
	}
	return nil
}

// requireCatalog guards actions that make catalog calls.
func (r *Runner) requireCatalog() error {
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog credentials missing, add them to config.toml", shared.ErrMissingCredentials)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
