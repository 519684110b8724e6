package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stopwatch-io/stopwatch-ce/internal/database"
	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

type SQLPhaseRepository struct {
	db     *sqlx.DB
	driver string
}

func NewSQLPhaseRepository(db *sqlx.DB) *SQLPhaseRepository {
	return &SQLPhaseRepository{db: db, driver: db.DriverName()}
}

func (r *SQLPhaseRepository) GetByID(ctx context.Context, id int64) (*models.Phase, error) {
	var p models.Phase
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`
		SELECT id, project_id, number FROM phases WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPhaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load phase: %w", err)
	}
	return &p, nil
}

// Latest returns the highest-numbered phase of the project, or
// ErrPhaseNotFound when the project has none yet.
func (r *SQLPhaseRepository) Latest(ctx context.Context, projectID int64) (*models.Phase, error) {
	var p models.Phase
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`
		SELECT id, project_id, number FROM phases
		WHERE project_id = ? ORDER BY number DESC LIMIT 1`), projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPhaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest phase: %w", err)
	}
	return &p, nil
}

// CreateNext inserts the next phase for the project. The number is
// computed inside the INSERT so concurrent creators cannot observe the
// same max; the UNIQUE (project_id, number) constraint backstops it.
func (r *SQLPhaseRepository) CreateNext(ctx context.Context, projectID int64) (*models.Phase, error) {
	id, err := database.InsertReturningID(ctx, r.db, r.driver, `
		INSERT INTO phases (project_id, number)
		SELECT ?, COALESCE(MAX(number), 0) + 1 FROM phases WHERE project_id = ?`,
		projectID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create phase: %w", err)
	}
	return r.GetByID(ctx, id)
}

// ListByProject returns phases most-recent-number-first, each with its
// summed recorded minutes. Interval arithmetic happens in Go rather
// than in driver-specific date SQL; open intervals contribute nothing.
func (r *SQLPhaseRepository) ListByProject(ctx context.Context, projectID int64) ([]models.PhaseSummary, error) {
	var phases []models.Phase
	err := r.db.SelectContext(ctx, &phases, r.db.Rebind(`
		SELECT id, project_id, number FROM phases
		WHERE project_id = ? ORDER BY number DESC`), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}

	var records []models.TimeRecord
	err = r.db.SelectContext(ctx, &records, r.db.Rebind(`
		SELECT id, action_item_id, project_id, phase_id, start, stop
		FROM time_records WHERE project_id = ? AND stop IS NOT NULL`), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list phase records: %w", err)
	}

	minutes := make(map[int64]float64, len(phases))
	latest := make(map[int64]models.TimeRecord, len(phases))
	for _, rec := range records {
		minutes[rec.PhaseID] += rec.Minutes()
		if last, ok := latest[rec.PhaseID]; !ok || rec.Start.After(last.Start) {
			latest[rec.PhaseID] = rec
		}
	}

	out := make([]models.PhaseSummary, 0, len(phases))
	for _, p := range phases {
		s := models.PhaseSummary{
			ID:           p.ID,
			ProjectID:    p.ProjectID,
			Number:       p.Number,
			TotalMinutes: minutes[p.ID],
		}
		if rec, ok := latest[p.ID]; ok {
			start := rec.Start
			s.LastStart = &start
		}
		out = append(out, s)
	}
	return out, nil
}
