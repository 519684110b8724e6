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

type SQLUserRepository struct {
	db     *sqlx.DB
	driver string
}

func NewSQLUserRepository(db *sqlx.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db, driver: db.DriverName()}
}

const userColumns = `id, name, email, password, usergroup_id, valid_id, create_time`

func (r *SQLUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`
		SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// GetByName looks up a login candidate. Archived users can still be
// loaded here; the auth service rejects them after the password check so
// the failure mode is indistinguishable from a wrong password.
func (r *SQLUserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`
		SELECT `+userColumns+` FROM users WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user by name: %w", err)
	}
	return &u, nil
}

func (r *SQLUserRepository) Create(ctx context.Context, u *models.User) error {
	id, err := database.InsertReturningID(ctx, r.db, r.driver, `
		INSERT INTO users (name, email, password, usergroup_id, valid_id, create_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Password, u.UsergroupID, models.ValidID, u.CreateTime)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = id
	u.ValidID = models.ValidID
	return nil
}

func (r *SQLUserRepository) setValid(ctx context.Context, id int64, validID int) error {
	n, err := database.ExecAffected(ctx, r.db,
		`UPDATE users SET valid_id = ? WHERE id = ?`, validID, id)
	if err != nil {
		return fmt.Errorf("failed to change user validity: %w", err)
	}
	if n == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *SQLUserRepository) Archive(ctx context.Context, id int64) error {
	return r.setValid(ctx, id, models.ArchivedID)
}

func (r *SQLUserRepository) Retrieve(ctx context.Context, id int64) error {
	return r.setValid(ctx, id, models.ValidID)
}
