package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLPermissionRepository resolves the URL set a user's group may reach.
// The navigation layer consumes the list; the core only produces it.
type SQLPermissionRepository struct {
	db *sqlx.DB
}

func NewSQLPermissionRepository(db *sqlx.DB) *SQLPermissionRepository {
	return &SQLPermissionRepository{db: db}
}

func (r *SQLPermissionRepository) URLsForUser(ctx context.Context, userID int64) ([]string, error) {
	var urls []string
	err := r.db.SelectContext(ctx, &urls, r.db.Rebind(`
		SELECT p.url
		FROM permissions p
		JOIN usergroup_permission_tie t ON t.permission_id = p.id
		JOIN users u ON u.usergroup_id = t.usergroup_id
		WHERE u.id = ?
		ORDER BY p.url`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permitted urls: %w", err)
	}
	return urls, nil
}
