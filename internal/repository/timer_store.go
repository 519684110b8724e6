package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stopwatch-io/stopwatch-ce/internal/database"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// SQLTimerStore applies the paired timer mutations inside one
// transaction. The session pointer is the lock: both Start and Stop use
// guarded UPDATEs on online_sessions (WHERE time_record_id IS NULL /
// = ?) so concurrent requests from the same session serialize on the
// row and the at-most-one-open-record invariant holds even when two
// starts race.
type SQLTimerStore struct {
	db     *sqlx.DB
	driver string
}

func NewSQLTimerStore(db *sqlx.DB) *SQLTimerStore {
	return &SQLTimerStore{db: db, driver: db.DriverName()}
}

func (s *SQLTimerStore) StartTiming(ctx context.Context, sessionID, actionItemID, projectID, phaseID int64, now time.Time) (*models.TimeRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin start-timing transaction: %w", err)
	}
	defer tx.Rollback()

	recordID, err := database.InsertReturningID(ctx, tx, s.driver, `
		INSERT INTO time_records (action_item_id, project_id, phase_id, start, stop)
		VALUES (?, ?, ?, ?, NULL)`,
		actionItemID, projectID, phaseID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert time record: %w", err)
	}

	n, err := database.ExecAffected(ctx, tx, `
		UPDATE online_sessions SET time_record_id = ?
		WHERE id = ? AND time_record_id IS NULL`, recordID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to set session timer pointer: %w", err)
	}
	if n == 0 {
		// Pointer already set: a concurrent start won. Roll back the
		// inserted record rather than leaving a second open interval.
		return nil, models.ErrAlreadyTiming
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit start-timing: %w", err)
	}
	return &models.TimeRecord{
		ID:           recordID,
		ActionItemID: actionItemID,
		ProjectID:    projectID,
		PhaseID:      phaseID,
		Start:        now,
	}, nil
}

func (s *SQLTimerStore) StopTiming(ctx context.Context, sessionID int64, now time.Time) (*models.TimeRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin stop-timing transaction: %w", err)
	}
	defer tx.Rollback()

	var recordID int64
	err = tx.GetContext(ctx, &recordID, tx.Rebind(`
		SELECT time_record_id FROM online_sessions
		WHERE id = ? AND time_record_id IS NOT NULL`), sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotCurrentlyTiming
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session timer pointer: %w", err)
	}

	n, err := database.ExecAffected(ctx, tx, `
		UPDATE time_records SET stop = ? WHERE id = ? AND stop IS NULL`, now, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to close time record: %w", err)
	}
	if n == 0 {
		return nil, models.ErrRecordNotFound
	}

	n, err = database.ExecAffected(ctx, tx, `
		UPDATE online_sessions SET time_record_id = NULL
		WHERE id = ? AND time_record_id = ?`, sessionID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear session timer pointer: %w", err)
	}
	if n == 0 {
		// A concurrent stop already cleared it; treat as the loser.
		return nil, models.ErrNotCurrentlyTiming
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stop-timing: %w", err)
	}

	var rec models.TimeRecord
	if err := s.db.GetContext(ctx, &rec, s.db.Rebind(`
		SELECT `+timeRecordColumns+` FROM time_records WHERE id = ?`), recordID); err != nil {
		return nil, fmt.Errorf("failed to reload closed record: %w", err)
	}
	return &rec, nil
}
