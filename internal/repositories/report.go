package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
)

// SyncRunRecord is a persisted sync run summary.
type SyncRunRecord struct {
	ID               string
	Sequence         int
	DryRun           bool
	PlaylistsTotal   int
	PlaylistsMatched int
	PlaylistsSkipped int
	TracksResolved   int
	TracksUnresolved int
	TracksAppended   int
	StartedAt        time.Time
	CompletedAt      time.Time
}

// SyncPlaylistRecord is the persisted outcome for one sync target in a run.
type SyncPlaylistRecord struct {
	ID               string
	RunID            string
	TargetID         string
	TargetName       string
	SourceID         string
	SourceName       string
	Skipped          bool
	TracksFetched    int
	TracksResolved   int
	TracksUnresolved int
	BatchesAttempted int
	BatchesConfirmed int
	TracksAppended   int
	ErrorMessage     string
}

// UnmatchedTrack is a source track that found no catalog counterpart,
// recorded so it can be reviewed or retried later.
type UnmatchedTrack struct {
	ID         string
	PlaylistID string
	ISRC       string
	Album      string
	Released   *time.Time
}

// ReportRepository persists sync run history.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new ReportRepository with the given database connection
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SaveRun writes a completed sync run, its per-playlist outcomes, and any
// unmatched tracks in one transaction. Returns the stored run record.
func (r *ReportRepository) SaveRun(result *tasks.SyncRunResult, startedAt, completedAt time.Time) (*SyncRunRecord, error) {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	record := &SyncRunRecord{
		ID:               shared.GenerateID(),
		Sequence:         sequence,
		DryRun:           result.DryRun,
		PlaylistsTotal:   len(result.Playlists),
		PlaylistsMatched: result.Matched,
		PlaylistsSkipped: result.Skipped,
		TracksResolved:   result.TotalResolved,
		TracksUnresolved: result.TotalUnresolved,
		TracksAppended:   result.TotalAppended,
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sync_runs (
			id, sequence, dry_run, playlists_total, playlists_matched,
			playlists_skipped, tracks_resolved, tracks_unresolved,
			tracks_appended, started_at, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.Sequence, record.DryRun, record.PlaylistsTotal,
		record.PlaylistsMatched, record.PlaylistsSkipped, record.TracksResolved,
		record.TracksUnresolved, record.TracksAppended, record.StartedAt,
		record.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sync run: %w", err)
	}

	for _, pr := range result.Playlists {
		playlistID := shared.GenerateID()

		var errorMessage any
		if pr.Err != nil {
			errorMessage = pr.Err.Error()
		}

		_, err = tx.Exec(`
			INSERT INTO sync_playlists (
				id, run_id, target_id, target_name, source_id, source_name,
				skipped, tracks_fetched, tracks_resolved, tracks_unresolved,
				batches_attempted, batches_confirmed, tracks_appended, error_message
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			playlistID, record.ID, pr.Target.ID, pr.Target.Name,
			pr.Source.ID, pr.Source.Name, pr.Skipped, pr.TracksFetched,
			pr.Resolved, pr.Unresolved, pr.BatchesAttempted,
			pr.BatchesConfirmed, pr.TracksAppended, errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert playlist outcome: %w", err)
		}

		for _, track := range pr.UnresolvedTracks {
			var released any
			if track.Meta.Released != nil {
				released = *track.Meta.Released
			}

			_, err = tx.Exec(`
				INSERT INTO unmatched_tracks (id, playlist_id, isrc, album, released)
				VALUES (?, ?, ?, ?, ?)
			`, shared.GenerateID(), playlistID, track.ISRC, track.Meta.Album, released)
			if err != nil {
				return nil, fmt.Errorf("failed to insert unmatched track: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sync run: %w", err)
	}

	return record, nil
}

// Get retrieves a sync run by ID
func (r *ReportRepository) Get(id string) (*SyncRunRecord, error) {
	row := r.db.QueryRow(`
		SELECT
			id, sequence, dry_run, playlists_total, playlists_matched,
			playlists_skipped, tracks_resolved, tracks_unresolved,
			tracks_appended, started_at, completed_at
		FROM sync_runs
		WHERE id = ?
	`, id)

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	return record, nil
}

// List retrieves the most recent sync runs, newest first. A limit of zero or
// less returns all runs.
func (r *ReportRepository) List(limit int) ([]*SyncRunRecord, error) {
	query := `
		SELECT
			id, sequence, dry_run, playlists_total, playlists_matched,
			playlists_skipped, tracks_resolved, tracks_unresolved,
			tracks_appended, started_at, completed_at
		FROM sync_runs
		ORDER BY sequence DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var records []*SyncRunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Playlists retrieves the per-playlist outcomes of a run.
func (r *ReportRepository) Playlists(runID string) ([]*SyncPlaylistRecord, error) {
	rows, err := r.db.Query(`
		SELECT
			id, run_id, target_id, target_name, source_id, source_name,
			skipped, tracks_fetched, tracks_resolved, tracks_unresolved,
			batches_attempted, batches_confirmed, tracks_appended, error_message
		FROM sync_playlists
		WHERE run_id = ?
		ORDER BY target_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist outcomes: %w", err)
	}
	defer rows.Close()

	var records []*SyncPlaylistRecord
	for rows.Next() {
		var (
			record       SyncPlaylistRecord
			sourceID     sql.NullString
			sourceName   sql.NullString
			errorMessage sql.NullString
		)

		err := rows.Scan(
			&record.ID, &record.RunID, &record.TargetID, &record.TargetName,
			&sourceID, &sourceName, &record.Skipped, &record.TracksFetched,
			&record.TracksResolved, &record.TracksUnresolved,
			&record.BatchesAttempted, &record.BatchesConfirmed,
			&record.TracksAppended, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist outcome: %w", err)
		}

		record.SourceID = sourceID.String
		record.SourceName = sourceName.String
		record.ErrorMessage = errorMessage.String
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Unmatched retrieves the unmatched tracks recorded for a run across all of
// its playlists.
func (r *ReportRepository) Unmatched(runID string) ([]*UnmatchedTrack, error) {
	rows, err := r.db.Query(`
		SELECT t.id, t.playlist_id, t.isrc, t.album, t.released
		FROM unmatched_tracks t
		JOIN sync_playlists p ON p.id = t.playlist_id
		WHERE p.run_id = ?
		ORDER BY t.isrc
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmatched tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*UnmatchedTrack
	for rows.Next() {
		var (
			track    UnmatchedTrack
			album    sql.NullString
			released sql.NullTime
		)

		if err := rows.Scan(&track.ID, &track.PlaylistID, &track.ISRC, &album, &released); err != nil {
			return nil, fmt.Errorf("failed to scan unmatched track: %w", err)
		}

		track.Album = album.String
		if released.Valid {
			track.Released = &released.Time
		}
		tracks = append(tracks, &track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*SyncRunRecord, error) {
	var record SyncRunRecord
	err := row.Scan(
		&record.ID, &record.Sequence, &record.DryRun, &record.PlaylistsTotal,
		&record.PlaylistsMatched, &record.PlaylistsSkipped,
		&record.TracksResolved, &record.TracksUnresolved,
		&record.TracksAppended, &record.StartedAt, &record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
