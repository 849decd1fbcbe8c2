package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/releaseradar/internal/shared"
	"github.com/urfave/cli/v3"
)

// CachePurge deletes stale cache entries by age, or everything for one artist.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	maxAge := int(cmd.Int("max-age-hours"))
	artistID := cmd.String("artist")

	if maxAge <= 0 && artistID == "" {
		return fmt.Errorf("%w: --max-age-hours or --artist is required", shared.ErrMissingArgument)
	}

	if artistID != "" {
		removed, err := r.releases.ClearArtist(artistID)
		if err != nil {
			return fmt.Errorf("failed to purge artist cache: %w", err)
		}
		r.writePlainln("✓ Removed %d cached releases for %s", removed, artistID)
		return nil
	}

	removed, err := r.releases.ClearExpired(maxAge)
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}

	r.writePlainln("✓ Removed %d cache entries older than %d hours", removed, maxAge)
	return nil
}
