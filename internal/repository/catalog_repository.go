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

// SQLCatalogRepository manages action items, item types and item rates.
// Upserts follow the admin editor contract: id 0 inserts, anything else
// updates. Deletes are soft (valid_id) so historical time records keep
// aggregating.
type SQLCatalogRepository struct {
	db     *sqlx.DB
	driver string
}

func NewSQLCatalogRepository(db *sqlx.DB) *SQLCatalogRepository {
	return &SQLCatalogRepository{db: db, driver: db.DriverName()}
}

// ListOpenItems returns the un-archived action items of a project joined
// with their type and rate, the set offered for new timing.
func (r *SQLCatalogRepository) ListOpenItems(ctx context.Context, projectID int64) ([]models.ActionItemDetail, error) {
	var items []models.ActionItemDetail
	err := r.db.SelectContext(ctx, &items, r.db.Rebind(`
		SELECT ai.id, ai.name,
		       it.description AS type_description,
		       ir.description AS rate_description,
		       ir.fee_per_hour
		FROM action_items ai
		JOIN item_types it ON it.id = ai.type_id
		JOIN item_rates ir ON ir.id = ai.rate_id
		WHERE ai.project_id = ? AND ai.valid_id = ?
		ORDER BY ai.name`), projectID, models.ValidID)
	if err != nil {
		return nil, fmt.Errorf("failed to list action items: %w", err)
	}
	return items, nil
}

func (r *SQLCatalogRepository) GetActionItem(ctx context.Context, id int64) (*models.ActionItem, error) {
	var item models.ActionItem
	err := r.db.GetContext(ctx, &item, r.db.Rebind(`
		SELECT id, name, project_id, type_id, rate_id, valid_id
		FROM action_items WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load action item: %w", err)
	}
	return &item, nil
}

func (r *SQLCatalogRepository) UpsertActionItem(ctx context.Context, item *models.ActionItem) error {
	if item.Name == "" {
		return &models.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if item.ID == 0 {
		id, err := database.InsertReturningID(ctx, r.db, r.driver, `
			INSERT INTO action_items (name, project_id, type_id, rate_id, valid_id)
			VALUES (?, ?, ?, ?, ?)`,
			item.Name, item.ProjectID, item.TypeID, item.RateID, models.ValidID)
		if err != nil {
			return fmt.Errorf("failed to insert action item: %w", err)
		}
		item.ID = id
		item.ValidID = models.ValidID
		return nil
	}
	n, err := database.ExecAffected(ctx, r.db, `
		UPDATE action_items SET name = ?, project_id = ?, type_id = ?, rate_id = ?
		WHERE id = ?`,
		item.Name, item.ProjectID, item.TypeID, item.RateID, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update action item: %w", err)
	}
	if n == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

// Rates

func (r *SQLCatalogRepository) ListRates(ctx context.Context) ([]models.ItemRate, error) {
	var rates []models.ItemRate
	err := r.db.SelectContext(ctx, &rates, r.db.Rebind(`
		SELECT id, description, fee_per_hour, valid_id FROM item_rates
		WHERE valid_id = ? ORDER BY description`), models.ValidID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	return rates, nil
}

func (r *SQLCatalogRepository) GetRate(ctx context.Context, id int64) (*models.ItemRate, error) {
	var rate models.ItemRate
	err := r.db.GetContext(ctx, &rate, r.db.Rebind(`
		SELECT id, description, fee_per_hour, valid_id FROM item_rates WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rate: %w", err)
	}
	return &rate, nil
}

func (r *SQLCatalogRepository) UpsertRate(ctx context.Context, rate *models.ItemRate) error {
	if rate.Description == "" {
		rate.Description = "Default Title"
	}
	if rate.FeePerHour < 0 {
		return &models.ValidationError{Field: "fee_per_hour", Reason: "must not be negative"}
	}
	if rate.ID == 0 {
		id, err := database.InsertReturningID(ctx, r.db, r.driver, `
			INSERT INTO item_rates (description, fee_per_hour, valid_id) VALUES (?, ?, ?)`,
			rate.Description, rate.FeePerHour, models.ValidID)
		if err != nil {
			return fmt.Errorf("failed to insert rate: %w", err)
		}
		rate.ID = id
		rate.ValidID = models.ValidID
		return nil
	}
	n, err := database.ExecAffected(ctx, r.db, `
		UPDATE item_rates SET description = ?, fee_per_hour = ? WHERE id = ?`,
		rate.Description, rate.FeePerHour, rate.ID)
	if err != nil {
		return fmt.Errorf("failed to update rate: %w", err)
	}
	if n == 0 {
		return models.ErrRateNotFound
	}
	return nil
}

// Types

func (r *SQLCatalogRepository) ListTypes(ctx context.Context) ([]models.ItemType, error) {
	var types []models.ItemType
	err := r.db.SelectContext(ctx, &types, r.db.Rebind(`
		SELECT id, description, valid_id FROM item_types
		WHERE valid_id = ? ORDER BY description`), models.ValidID)
	if err != nil {
		return nil, fmt.Errorf("failed to list types: %w", err)
	}
	return types, nil
}

func (r *SQLCatalogRepository) UpsertType(ctx context.Context, typ *models.ItemType) error {
	if typ.Description == "" {
		typ.Description = "Default Title"
	}
	if typ.ID == 0 {
		id, err := database.InsertReturningID(ctx, r.db, r.driver, `
			INSERT INTO item_types (description, valid_id) VALUES (?, ?)`,
			typ.Description, models.ValidID)
		if err != nil {
			return fmt.Errorf("failed to insert type: %w", err)
		}
		typ.ID = id
		typ.ValidID = models.ValidID
		return nil
	}
	n, err := database.ExecAffected(ctx, r.db, `
		UPDATE item_types SET description = ? WHERE id = ?`, typ.Description, typ.ID)
	if err != nil {
		return fmt.Errorf("failed to update type: %w", err)
	}
	if n == 0 {
		return models.ErrTypeNotFound
	}
	return nil
}

// setValid flips the soft-delete flag on one row of a known table. The
// table name comes from the closed set below, never from callers.
func (r *SQLCatalogRepository) setValid(ctx context.Context, table string, id int64, validID int) error {
	n, err := database.ExecAffected(ctx, r.db,
		`UPDATE `+table+` SET valid_id = ? WHERE id = ?`, validID, id)
	if err != nil {
		return fmt.Errorf("failed to change validity in %s: %w", table, err)
	}
	if n == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

func (r *SQLCatalogRepository) ArchiveActionItem(ctx context.Context, id int64) error {
	return r.setValid(ctx, "action_items", id, models.ArchivedID)
}

func (r *SQLCatalogRepository) RetrieveActionItem(ctx context.Context, id int64) error {
	return r.setValid(ctx, "action_items", id, models.ValidID)
}

func (r *SQLCatalogRepository) ArchiveRate(ctx context.Context, id int64) error {
	return r.setValid(ctx, "item_rates", id, models.ArchivedID)
}

func (r *SQLCatalogRepository) RetrieveRate(ctx context.Context, id int64) error {
	return r.setValid(ctx, "item_rates", id, models.ValidID)
}

func (r *SQLCatalogRepository) ArchiveType(ctx context.Context, id int64) error {
	return r.setValid(ctx, "item_types", id, models.ArchivedID)
}

func (r *SQLCatalogRepository) RetrieveType(ctx context.Context, id int64) error {
	return r.setValid(ctx, "item_types", id, models.ValidID)
}
