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

type SQLProjectRepository struct {
	db     *sqlx.DB
	driver string
}

func NewSQLProjectRepository(db *sqlx.DB) *SQLProjectRepository {
	return &SQLProjectRepository{db: db, driver: db.DriverName()}
}

const projectColumns = `id, user_id, tt_number, office_serial, description, notes, status_id`

func (r *SQLProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	var p models.Project
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`
		SELECT `+projectColumns+` FROM projects WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &p, nil
}

// Create inserts a blank active project for the user; details come later
// through UpdateDetails.
func (r *SQLProjectRepository) Create(ctx context.Context, userID int64) (*models.Project, error) {
	id, err := database.InsertReturningID(ctx, r.db, r.driver, `
		INSERT INTO projects (user_id, tt_number, office_serial, description, notes, status_id)
		VALUES (?, NULL, NULL, NULL, NULL, ?)`, userID, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *SQLProjectRepository) UpdateDetails(ctx context.Context, p *models.Project) error {
	n, err := database.ExecAffected(ctx, r.db, `
		UPDATE projects
		SET tt_number = ?, office_serial = ?, description = ?, notes = ?, status_id = ?
		WHERE id = ?`,
		p.TTNumber, p.OfficeSerial, p.Description, p.Notes, p.StatusID, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project details: %w", err)
	}
	if n == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

// ListActiveByUser returns the user's non-closed projects with their
// total recorded minutes, computed in Go from the closed intervals.
func (r *SQLProjectRepository) ListActiveByUser(ctx context.Context, userID int64) ([]models.ProjectSummary, error) {
	var projects []models.Project
	err := r.db.SelectContext(ctx, &projects, r.db.Rebind(`
		SELECT `+projectColumns+` FROM projects
		WHERE user_id = ? AND status_id != ? ORDER BY id`), userID, models.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if len(projects) == 0 {
		return nil, nil
	}

	var records []models.TimeRecord
	err = r.db.SelectContext(ctx, &records, r.db.Rebind(`
		SELECT tr.id, tr.action_item_id, tr.project_id, tr.phase_id, tr.start, tr.stop
		FROM time_records tr
		JOIN projects p ON p.id = tr.project_id
		WHERE p.user_id = ? AND tr.stop IS NOT NULL`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project records: %w", err)
	}

	minutes := make(map[int64]float64, len(projects))
	for _, rec := range records {
		minutes[rec.ProjectID] += rec.Minutes()
	}

	out := make([]models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, models.ProjectSummary{
			ID:           p.ID,
			Description:  p.Description,
			TotalMinutes: minutes[p.ID],
		})
	}
	return out, nil
}

// ListStatuses returns the project status labels for the details editor.
func (r *SQLProjectRepository) ListStatuses(ctx context.Context) ([]models.ProjectStatus, error) {
	var statuses []models.ProjectStatus
	err := r.db.SelectContext(ctx, &statuses, `SELECT id, description FROM project_status ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}
