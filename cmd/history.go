package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// History prints the most recent tracking runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	runs, err := r.runs.History(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		r.writePlainln("No runs recorded yet.")
		return nil
	}

	r.writePlain("Recent runs: %d\n", len(runs))
	for _, run := range runs {
		r.writePlain("  %s  %d artists, %d releases, %d API calls, %s (%s)\n",
			run.Timestamp.Format(time.RFC3339),
			run.ArtistsTracked,
			run.ReleasesFound,
			run.APICallsMade,
			run.Duration.Round(time.Millisecond),
			run.Status,
		)
	}

	return nil
}
