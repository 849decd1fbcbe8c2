package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	StartRun Phase = iota
	DispatchArtist
	ArtistDone
	ArtistFailed
	RunComplete
)

func (p Phase) String() string {
	switch p {
	case StartRun:
		return "start_run"
	case DispatchArtist:
		return "dispatch_artist"
	case ArtistDone:
		return "artist_done"
	case ArtistFailed:
		return "artist_failed"
	case RunComplete:
		return "run_complete"
	default:
		return ""
	}
}

func startRunUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StartRun,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Tracking %d artists...", total),
	}
}

func dispatchArtistUpdate(step, total int, artistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DispatchArtist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Dispatching %s...", step, total, artistID),
	}
}

func artistDoneUpdate(step, total int, name string, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ArtistDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d releases)", step, total, name, found),
	}
}

func artistFailedUpdate(step, total int, artistID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ArtistFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, artistID, err),
	}
}

func runCompleteUpdate(total, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunComplete,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Found %d releases", found),
	}
}
