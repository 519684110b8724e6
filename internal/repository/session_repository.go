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

// SQLSessionRepository stores online sessions in the online_sessions
// table. The UNIQUE constraint on user_id enforces the one-session-per-
// user rule at the storage layer.
type SQLSessionRepository struct {
	db     *sqlx.DB
	driver string
}

func NewSQLSessionRepository(db *sqlx.DB) *SQLSessionRepository {
	return &SQLSessionRepository{db: db, driver: db.DriverName()}
}

func (r *SQLSessionRepository) Create(ctx context.Context, s *models.OnlineSession) error {
	id, err := database.InsertReturningID(ctx, r.db, r.driver, `
		INSERT INTO online_sessions (user_id, session_id, time_record_id, viewing_project_id, create_time)
		VALUES (?, ?, NULL, NULL, ?)`,
		s.UserID, s.Token, s.CreateTime)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	s.ID = id
	return nil
}

func (r *SQLSessionRepository) GetByToken(ctx context.Context, token string) (*models.OnlineSession, error) {
	var s models.OnlineSession
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
		SELECT id, user_id, session_id, time_record_id, viewing_project_id, create_time
		FROM online_sessions WHERE session_id = ?`), token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

func (r *SQLSessionRepository) GetByUserID(ctx context.Context, userID int64) (*models.OnlineSession, error) {
	var s models.OnlineSession
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
		SELECT id, user_id, session_id, time_record_id, viewing_project_id, create_time
		FROM online_sessions WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

func (r *SQLSessionRepository) SetViewingProject(ctx context.Context, sessionID int64, projectID *int64) error {
	n, err := database.ExecAffected(ctx, r.db, `
		UPDATE online_sessions SET viewing_project_id = ? WHERE id = ?`, projectID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to set viewing project: %w", err)
	}
	if n == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

func (r *SQLSessionRepository) Delete(ctx context.Context, sessionID int64) error {
	n, err := database.ExecAffected(ctx, r.db, `DELETE FROM online_sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// DeleteOlderThan purges sessions created before the cutoff that are not
// timing; the cron cleanup uses it. Sessions with an open interval are
// never purged here, no matter how old: deleting the row would orphan
// the interval its time_record_id points at. Such a row goes away when
// its user logs in again, which stops the interval before replacing the
// session.
func (r *SQLSessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := database.ExecAffected(ctx, r.db, `
		DELETE FROM online_sessions WHERE create_time < ? AND time_record_id IS NULL`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale sessions: %w", err)
	}
	return n, nil
}
