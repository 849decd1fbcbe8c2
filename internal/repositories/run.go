package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/shared"
)

// RunRepository manages the append-only run ledger. Rows are written once
// per completed tracking invocation and never mutated.
type RunRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db, now: time.Now}
}

// Record appends one run record. A zero timestamp is stamped with the
// current time; an empty status defaults to completed.
func (r *RunRepository) Record(run models.RunRecord) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = r.now()
	}
	if run.Status == "" {
		run.Status = models.RunCompleted
	}

	_, err := r.db.Exec(`
		INSERT INTO run_history
		(id, run_timestamp, artists_tracked, releases_found, lookback_days,
		 duration_seconds, api_calls_made, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Timestamp,
		run.ArtistsTracked,
		run.ReleasesFound,
		run.LookbackDays,
		run.Duration.Seconds(),
		run.APICallsMade,
		run.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// LastCompleted returns the timestamp of the most recent completed run,
// or nil when no run has completed yet.
func (r *RunRepository) LastCompleted() (*time.Time, error) {
	var ts time.Time
	err := r.db.QueryRow(`
		SELECT run_timestamp FROM run_history
		WHERE status = ?
		ORDER BY run_timestamp DESC LIMIT 1
	`, models.RunCompleted).Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last run: %w", err)
	}

	return &ts, nil
}

// History returns the most recent runs, newest first.
func (r *RunRepository) History(limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(`
		SELECT id, run_timestamp, artists_tracked, releases_found, lookback_days,
		       duration_seconds, api_calls_made, status
		FROM run_history
		ORDER BY run_timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		var (
			run     models.RunRecord
			seconds float64
		)
		err := rows.Scan(
			&run.ID,
			&run.Timestamp,
			&run.ArtistsTracked,
			&run.ReleasesFound,
			&run.LookbackDays,
			&seconds,
			&run.APICallsMade,
			&run.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		run.Duration = time.Duration(seconds * float64(time.Second))
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}
