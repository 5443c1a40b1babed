// Package history persists job attempts, per-item outcomes and the worker
// event stream to SQLite. The result.json artifacts are the contract with
// the submitting side; this store exists for the operator, who wants to ask
// "what happened to job X last Tuesday" without grepping log directories.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quickfab/geoworker/internal/events"
	"github.com/quickfab/geoworker/internal/job"
	"github.com/quickfab/geoworker/internal/migrations"
)

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and applies the
// schema. The caller owns Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already-opened, already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Attempt is one recorded processing run of a job.
type Attempt struct {
	ID         string
	JobID      string
	Status     string
	Items      int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// ItemRecord is one persisted work-item outcome.
type ItemRecord struct {
	AttemptID         string
	PartID            int
	InputPath         string
	Status            string
	MaterialRequested string
	MaterialApplied   string
	ThicknessMm       *float64
	GeoPath           *string
	Notes             string
}

// StartAttempt records the beginning of a job run and returns the attempt id.
func (s *Store) StartAttempt(jobID string, items int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO job_attempts (id, job_id, status, items, started_at)
		VALUES (?, ?, 'RUNNING', ?, ?)`,
		id, jobID, items, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

// FinishAttempt stores the final status and every part outcome.
func (s *Store) FinishAttempt(attemptID string, res job.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE job_attempts SET status = ?, finished_at = ? WHERE id = ?`,
		string(res.Status), time.Now().UTC(), attemptID,
	); err != nil {
		return fmt.Errorf("finish attempt: %w", err)
	}

	for _, p := range res.Parts {
		if _, err := tx.Exec(`
			INSERT INTO item_results
				(attempt_id, part_id, input_path, status,
				 material_requested, material_applied, thickness_mm, geo_path, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			attemptID, p.PartID, p.InputPath, string(p.Status),
			p.MaterialFromCatalog, p.MaterialApplied, p.ThicknessMmDetected, p.GeoPath, p.Notes,
		); err != nil {
			return fmt.Errorf("insert item result: %w", err)
		}
	}

	return tx.Commit()
}

// Append persists a worker event. Implements events.Appender.
func (s *Store) Append(e events.Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO events (event_type, job_id, payload, occurred_at)
		VALUES (?, ?, ?, ?)`,
		e.EventType(), e.JobID(), string(payload), e.OccurredAt().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return result.LastInsertId()
}

// RecentAttempts returns the newest attempts first.
func (s *Store) RecentAttempts(limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, job_id, status, items, started_at, finished_at
		FROM job_attempts
		ORDER BY started_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// JobAttempts returns every attempt for one job, oldest first.
func (s *Store) JobAttempts(jobID string) ([]Attempt, error) {
	rows, err := s.db.Query(`
		SELECT id, job_id, status, items, started_at, finished_at
		FROM job_attempts
		WHERE job_id = ?
		ORDER BY started_at ASC, id ASC`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	return scanAttempts(rows)
}

// AttemptItems returns the item outcomes of one attempt in insertion order.
func (s *Store) AttemptItems(attemptID string) ([]ItemRecord, error) {
	rows, err := s.db.Query(`
		SELECT attempt_id, part_id, input_path, status,
		       material_requested, material_applied, thickness_mm, geo_path, notes
		FROM item_results
		WHERE attempt_id = ?
		ORDER BY id ASC`,
		attemptID,
	)
	if err != nil {
		return nil, fmt.Errorf("query item results: %w", err)
	}
	defer rows.Close()

	var items []ItemRecord
	for rows.Next() {
		var it ItemRecord
		if err := rows.Scan(&it.AttemptID, &it.PartID, &it.InputPath, &it.Status,
			&it.MaterialRequested, &it.MaterialApplied, &it.ThicknessMm, &it.GeoPath, &it.Notes); err != nil {
			return nil, fmt.Errorf("scan item result: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// RawEvent is a persisted event with its JSON payload.
type RawEvent struct {
	ID         int64
	EventType  string
	JobID      string
	Payload    string
	OccurredAt time.Time
}

// JobEvents returns all persisted events for a job, oldest first.
func (s *Store) JobEvents(jobID string) ([]RawEvent, error) {
	rows, err := s.db.Query(`
		SELECT id, event_type, job_id, payload, occurred_at
		FROM events
		WHERE job_id = ?
		ORDER BY id ASC`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []RawEvent
	for rows.Next() {
		var e RawEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.JobID, &e.Payload, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneEvents removes events older than the given duration.
func (s *Store) PruneEvents(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return result.RowsAffected()
}

func scanAttempts(rows *sql.Rows) ([]Attempt, error) {
	var out []Attempt
	for rows.Next() {
		var a Attempt
		var finished sql.NullTime
		if err := rows.Scan(&a.ID, &a.JobID, &a.Status, &a.Items, &a.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			a.FinishedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
