// Package reverbdb persists completed reverberation runs: which sensor pair
// ran, with what scenario parameters, and where the exported envelope
// snapshot landed on disk.
package reverbdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound reports a lookup for a run id that was never recorded.
var ErrRunNotFound = errors.New("reverbdb: run not found")

// RunRecord describes one completed (or in-progress) reverberation run.
type RunRecord struct {
	ID           int64      `json:"id"`
	RunID        string     `json:"run_id"`
	SourceID     int64      `json:"source_id"`
	ReceiverID   int64      `json:"receiver_id"`
	NumAzimuths  int        `json:"num_azimuths"`
	NumSrcBeams  int        `json:"num_src_beams"`
	NumRcvBeams  int        `json:"num_rcv_beams"`
	NumFreqs     int        `json:"num_freqs"`
	NumTimes     int        `json:"num_times"`
	PulseLength  float64    `json:"pulse_length"`
	Threshold    float64    `json:"threshold"`
	SnapshotPath string     `json:"snapshot_path,omitempty"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// DB wraps the runs database.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) a runs database at path. Use ":memory:"
// for tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening runs db %s: %w", path, err)
	}

	// Baseline schema for fresh databases; MigrateUp applies any later
	// revisions.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reverb_runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL UNIQUE,
			source_id      BIGINT NOT NULL,
			receiver_id    BIGINT NOT NULL,
			num_azimuths   INTEGER NOT NULL,
			num_src_beams  INTEGER NOT NULL,
			num_rcv_beams  INTEGER NOT NULL,
			num_freqs      INTEGER NOT NULL,
			num_times      INTEGER NOT NULL,
			pulse_length   DOUBLE NOT NULL,
			threshold      DOUBLE NOT NULL,
			snapshot_path  TEXT,
			status         TEXT NOT NULL DEFAULT 'running',
			error          TEXT,
			started_at     DATETIME NOT NULL,
			completed_at   DATETIME
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating runs schema: %w", err)
	}

	return &DB{db}, nil
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// InsertRun records the start of a run.
func (db *DB) InsertRun(rec RunRecord) error {
	_, err := db.Exec(`
		INSERT INTO reverb_runs (
			run_id, source_id, receiver_id,
			num_azimuths, num_src_beams, num_rcv_beams, num_freqs, num_times,
			pulse_length, threshold, status, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.SourceID, rec.ReceiverID,
		rec.NumAzimuths, rec.NumSrcBeams, rec.NumRcvBeams, rec.NumFreqs, rec.NumTimes,
		rec.PulseLength, rec.Threshold, "running",
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", rec.RunID, err)
	}
	return nil
}

// CompleteRun marks a run finished, recording the snapshot location or the
// failure reason.
func (db *DB) CompleteRun(runID, snapshotPath, errMsg string, completedAt time.Time) error {
	status := "completed"
	if errMsg != "" {
		status = "failed"
	}
	res, err := db.Exec(`
		UPDATE reverb_runs
		SET status = ?, snapshot_path = ?, error = ?, completed_at = ?
		WHERE run_id = ?`,
		status, snapshotPath, nullStr(errMsg),
		completedAt.UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("completing run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// GetRun fetches one run by its run id.
func (db *DB) GetRun(runID string) (*RunRecord, error) {
	row := db.QueryRow(`
		SELECT id, run_id, source_id, receiver_id,
		       num_azimuths, num_src_beams, num_rcv_beams, num_freqs, num_times,
		       pulse_length, threshold,
		       COALESCE(snapshot_path, ''), status, COALESCE(error, ''),
		       started_at, completed_at
		FROM reverb_runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching run %s: %w", runID, err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]*RunRecord, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, run_id, source_id, receiver_id,
		       num_azimuths, num_src_beams, num_rcv_beams, num_freqs, num_times,
		       pulse_length, threshold,
		       COALESCE(snapshot_path, ''), status, COALESCE(error, ''),
		       started_at, completed_at
		FROM reverb_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var rec RunRecord
	var started string
	var completed sql.NullString
	err := s.Scan(
		&rec.ID, &rec.RunID, &rec.SourceID, &rec.ReceiverID,
		&rec.NumAzimuths, &rec.NumSrcBeams, &rec.NumRcvBeams, &rec.NumFreqs, &rec.NumTimes,
		&rec.PulseLength, &rec.Threshold,
		&rec.SnapshotPath, &rec.Status, &rec.Error,
		&started, &completed,
	)
	if err != nil {
		return nil, err
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
	}
	if completed.Valid && completed.String != "" {
		t, err := time.Parse(time.RFC3339Nano, completed.String)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at %q: %w", completed.String, err)
		}
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
