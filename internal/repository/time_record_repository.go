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

type SQLTimeRecordRepository struct {
	db     *sqlx.DB
	driver string
}

func NewSQLTimeRecordRepository(db *sqlx.DB) *SQLTimeRecordRepository {
	return &SQLTimeRecordRepository{db: db, driver: db.DriverName()}
}

const timeRecordColumns = `id, action_item_id, project_id, phase_id, start, stop`

func (r *SQLTimeRecordRepository) GetByID(ctx context.Context, id int64) (*models.TimeRecord, error) {
	var rec models.TimeRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(`
		SELECT `+timeRecordColumns+` FROM time_records WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load time record: %w", err)
	}
	return &rec, nil
}

func (r *SQLTimeRecordRepository) ListByPhase(ctx context.Context, phaseID int64) ([]models.TimeRecord, error) {
	var recs []models.TimeRecord
	err := r.db.SelectContext(ctx, &recs, r.db.Rebind(`
		SELECT `+timeRecordColumns+` FROM time_records
		WHERE phase_id = ? ORDER BY start`), phaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for phase: %w", err)
	}
	return recs, nil
}

func (r *SQLTimeRecordRepository) ListByProject(ctx context.Context, projectID int64) ([]models.TimeRecord, error) {
	var recs []models.TimeRecord
	err := r.db.SelectContext(ctx, &recs, r.db.Rebind(`
		SELECT `+timeRecordColumns+` FROM time_records
		WHERE project_id = ? ORDER BY start`), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for project: %w", err)
	}
	return recs, nil
}

// UpdateInterval rewrites a record's interval and phase assignment from
// a manual adjustment. Inputs arrive already validated and converted to
// absolute time; the single UPDATE is its own transaction boundary.
// Open records are not editable: while a session's time_record_id points
// at a record, setting its stop here would strand the pointer on a
// closed record. The stop IS NOT NULL guard keeps the pairing intact.
func (r *SQLTimeRecordRepository) UpdateInterval(ctx context.Context, id int64, start, stop time.Time, phaseID int64) error {
	n, err := database.ExecAffected(ctx, r.db, `
		UPDATE time_records SET start = ?, stop = ?, phase_id = ?
		WHERE id = ? AND stop IS NOT NULL`,
		start, stop, phaseID, id)
	if err != nil {
		return fmt.Errorf("failed to update time record: %w", err)
	}
	if n == 0 {
		rec, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rec.IsOpen() {
			return &models.ValidationError{Field: "record", Reason: "cannot edit an open interval"}
		}
		return models.ErrRecordNotFound
	}
	return nil
}
