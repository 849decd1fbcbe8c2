package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/repositories"
	"github.com/desertthunder/releaseradar/internal/services"
	"github.com/desertthunder/releaseradar/internal/shared"
	"golang.org/x/time/rate"
)

// Profiler receives engine events for observability. Implementations must
// be safe for concurrent use. The metrics package provides a
// Prometheus-backed implementation; a nil profiler disables profiling.
type Profiler interface {
	APICall(operation string)
	Retry(kind string)
	CacheHit()
	CacheMiss()
	CrossRefHit()
	CrossRefMiss()
	ReleasesFound(count int)
}

// nopProfiler discards all events.
type nopProfiler struct{}

func (nopProfiler) APICall(string)    {}
func (nopProfiler) Retry(string)      {}
func (nopProfiler) CacheHit()         {}
func (nopProfiler) CacheMiss()        {}
func (nopProfiler) CrossRefHit()      {}
func (nopProfiler) CrossRefMiss()     {}
func (nopProfiler) ReleasesFound(int) {}

var _ Profiler = nopProfiler{}

// EngineConfig contains the dependencies and tuning for a TrackerEngine.
type EngineConfig struct {
	Catalog    services.Catalog
	Releases   *repositories.ReleaseCacheRepository
	CrossRefs  *repositories.CrossRefRepository
	Runs       *repositories.RunRepository
	Logger     *log.Logger
	Profiler   Profiler      // Optional, nil disables profiling
	MaxRetries int           // Retry budget per catalog call (default 3)
	BaseDelay  time.Duration // Backoff seed (default 2s)
}

// TrackerEngine coordinates release discovery for tracked artists.
// Contains dependencies on the music catalog and the cache repositories.
type TrackerEngine struct {
	catalog   services.Catalog
	releases  *repositories.ReleaseCacheRepository
	crossRefs *repositories.CrossRefRepository
	runs      *repositories.RunRepository
	logger    *log.Logger
	profiler  Profiler
	retrier   *Retrier

	apiCalls atomic.Int64
}

// NewTrackerEngine creates a new TrackerEngine from the provided config.
func NewTrackerEngine(cfg EngineConfig) *TrackerEngine {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Profiler == nil {
		cfg.Profiler = nopProfiler{}
	}

	e := &TrackerEngine{
		catalog:   cfg.Catalog,
		releases:  cfg.Releases,
		crossRefs: cfg.CrossRefs,
		runs:      cfg.Runs,
		logger:    cfg.Logger,
		profiler:  cfg.Profiler,
	}

	e.retrier = NewRetrier(cfg.MaxRetries, cfg.BaseDelay, cfg.Profiler, func(operation string) {
		e.apiCalls.Add(1)
		e.profiler.APICall(operation)
	})

	return e
}

// TrackOpts contains configuration for a tracking run.
type TrackOpts struct {
	LookbackDays int     // Window size in days (default 90)
	MaxTracks    int     // Per-artist cap, 0 means unlimited
	ForceRefresh bool    // Bypass the release cache
	NumWorkers   int     // Concurrent workers (default 8)
	RateLimit    float64 // Dispatches per second (default 5)
}

// TrackResult contains the merged outcome of a multi-artist tracking run.
type TrackResult struct {
	Releases         []models.Release // All releases, newest first
	ArtistsTracked   int              // Artists dispatched
	ProcessedCount   int              // Artists with at least one release
	MissingArtistIDs []string         // Resolved artists with no releases in window
	APICallsMade     int              // Physical catalog calls, retries included
	Duration         time.Duration
}

// artistJob is one unit of work for the tracking worker pool.
type artistJob struct {
	step     int
	artistID string
}

// artistResult is the per-artist outcome collected from workers.
type artistResult struct {
	step     int
	artistID string
	name     string
	releases []models.Release
	err      error
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *TrackerEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// cutoff converts the lookback window to an absolute date boundary.
// Releases on the boundary day itself are inside the window.
func cutoff(lookbackDays int) time.Time {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return time.Now().AddDate(0, 0, -lookbackDays).Truncate(24 * time.Hour)
}

// TrackAll discovers recent releases for every artist ID concurrently.
//
// Artists are dispatched to a bounded worker pool behind a rate limiter.
// Per-artist failures are logged and skipped; they never abort the run.
// The merged result is sorted newest first and a run record is appended
// to the ledger on completion.
func (e *TrackerEngine) TrackAll(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	artistIDs []string,
	opts TrackOpts,
) (*TrackResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 90
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 8
	}
	if opts.NumWorkers > 16 {
		opts.NumWorkers = 16
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	start := time.Now()
	callsBefore := e.apiCalls.Load()
	since := cutoff(opts.LookbackDays)
	total := len(artistIDs)

	result := &TrackResult{ArtistsTracked: total}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan artistJob, total)
	results := make(chan artistResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.trackWorker(ctx, &wg, jobs, results, since, opts)
	}

	go func() {
		e.sendProgress(prog, startRunUpdate(total))
		for i, artistID := range artistIDs {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				close(jobs)
				return
			}

			jobs <- artistJob{step: i + 1, artistID: artistID}
			e.sendProgress(prog, dispatchArtistUpdate(i+1, total, artistID))
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++

		if res.err != nil {
			e.logger.Error("artist tracking failed", "artist_id", res.artistID, "error", res.err)
			e.sendProgress(prog, artistFailedUpdate(completed, total, res.artistID, res.err))
			continue
		}

		if len(res.releases) == 0 {
			result.MissingArtistIDs = append(result.MissingArtistIDs, res.artistID)
			e.sendProgress(prog, artistDoneUpdate(completed, total, res.name, 0))
			continue
		}

		result.ProcessedCount++
		result.Releases = append(result.Releases, res.releases...)
		e.sendProgress(prog, artistDoneUpdate(completed, total, res.name, len(res.releases)))
	}

	sort.SliceStable(result.Releases, func(i, j int) bool {
		return result.Releases[i].ReleaseDate.After(result.Releases[j].ReleaseDate)
	})

	result.APICallsMade = int(e.apiCalls.Load() - callsBefore)
	result.Duration = time.Since(start)
	e.profiler.ReleasesFound(len(result.Releases))
	e.sendProgress(prog, runCompleteUpdate(total, len(result.Releases)))

	if e.runs != nil {
		err := e.runs.Record(models.RunRecord{
			ArtistsTracked: total,
			ReleasesFound:  len(result.Releases),
			LookbackDays:   opts.LookbackDays,
			Duration:       result.Duration,
			APICallsMade:   result.APICallsMade,
			Status:         models.RunCompleted,
		})
		if err != nil {
			e.logger.Warn("failed to record run", "error", err)
		}
	}

	return result, nil
}

// trackWorker is a worker goroutine that processes artists from the jobs channel.
func (e *TrackerEngine) trackWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan artistJob,
	results chan<- artistResult,
	since time.Time,
	opts TrackOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.processArtist(ctx, job, since, opts)
	}
}

// processArtist resolves an artist's name and runs the extraction pipeline.
// Any failure is captured in the result, never propagated.
func (e *TrackerEngine) processArtist(ctx context.Context, job artistJob, since time.Time, opts TrackOpts) artistResult {
	res := artistResult{step: job.step, artistID: job.artistID}

	var artist *services.Artist
	err := e.retrier.Do(ctx, "get_artist", func() error {
		a, err := e.catalog.GetArtist(ctx, job.artistID)
		if err != nil {
			return err
		}
		artist = a
		return nil
	})
	if err != nil {
		res.err = fmt.Errorf("%w: failed to resolve artist %s: %v", shared.ErrAPIRequest, job.artistID, err)
		return res
	}
	res.name = artist.Name

	releases, err := e.fetchArtistReleases(ctx, job.artistID, artist.Name, since, opts.MaxTracks, opts.ForceRefresh)
	if err != nil {
		res.err = err
		return res
	}

	res.releases = releases
	return res
}

// Fetch runs the extraction pipeline for a single artist. Pipeline failures
// are logged and yield an empty result; an empty slice for a resolvable
// artist means "no recent releases".
func (e *TrackerEngine) Fetch(ctx context.Context, artistID, artistName string, opts TrackOpts) []models.Release {
	releases, err := e.fetchArtistReleases(ctx, artistID, artistName, cutoff(opts.LookbackDays), opts.MaxTracks, opts.ForceRefresh)
	if err != nil {
		e.logger.Error("release fetch failed", "artist", artistName, "error", err)
		return nil
	}
	return releases
}

// TrackNew returns only releases cached after the last completed run, merged
// across the given artists and sorted newest first. It reads the cache
// exclusively; no catalog calls are made.
func (e *TrackerEngine) TrackNew(ctx context.Context, artistIDs []string, lookbackDays int) ([]models.Release, error) {
	since := cutoff(lookbackDays)

	var out []models.Release
	for _, artistID := range artistIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := e.releases.NewSince(artistID, since)
		if err != nil {
			return nil, fmt.Errorf("delta query failed for %s: %w", artistID, err)
		}
		for _, entry := range entries {
			out = append(out, entry.Release)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReleaseDate.After(out[j].ReleaseDate)
	})

	return out, nil
}

// TrackArtistByName resolves a name to a catalog artist and fetches their
// recent releases in one shot, without touching the roster.
func (e *TrackerEngine) TrackArtistByName(ctx context.Context, name string, opts TrackOpts) (*services.Artist, []models.Release, error) {
	if e.catalog == nil {
		return nil, nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	var artist *services.Artist
	err := e.retrier.Do(ctx, "search_artist", func() error {
		a, err := e.catalog.SearchArtist(ctx, name)
		if err != nil {
			return err
		}
		artist = a
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: no artist found for '%s': %v", shared.ErrArtistNotFound, name, err)
	}

	releases, err := e.fetchArtistReleases(ctx, artist.ID, artist.Name, cutoff(opts.LookbackDays), opts.MaxTracks, opts.ForceRefresh)
	if err != nil {
		return artist, nil, err
	}

	return artist, releases, nil
}

// TrackPlaylist collects the unique artists on a playlist and runs a full
// tracking pass over them.
func (e *TrackerEngine) TrackPlaylist(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	playlistID string,
	opts TrackOpts,
) (*TrackResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	var artists []services.Artist
	err := e.retrier.Do(ctx, "list_playlist_artists", func() error {
		a, err := e.catalog.ListPlaylistArtists(ctx, playlistID)
		if err != nil {
			return err
		}
		artists = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read playlist %s: %v", shared.ErrPlaylistNotFound, playlistID, err)
	}

	ids := make([]string, 0, len(artists))
	for _, artist := range artists {
		ids = append(ids, artist.ID)
	}

	return e.TrackAll(ctx, prog, ids, opts)
}
