package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// SQLIntervalReader joins closed time records with their action item,
// type description and the rate's current fee. Archived items are
// included on purpose: archiving hides an item from new timing but its
// history still bills.
type SQLIntervalReader struct {
	db *sqlx.DB
}

func NewSQLIntervalReader(db *sqlx.DB) *SQLIntervalReader {
	return &SQLIntervalReader{db: db}
}

func (r *SQLIntervalReader) ClosedIntervalsByPhase(ctx context.Context, phaseID int64) ([]models.BilledInterval, error) {
	var intervals []models.BilledInterval
	err := r.db.SelectContext(ctx, &intervals, r.db.Rebind(`
		SELECT ai.id AS action_item_id,
		       ai.name AS action_item_name,
		       it.description AS type_description,
		       ir.fee_per_hour,
		       tr.start, tr.stop
		FROM time_records tr
		JOIN action_items ai ON ai.id = tr.action_item_id
		JOIN item_types it ON it.id = ai.type_id
		JOIN item_rates ir ON ir.id = ai.rate_id
		WHERE tr.phase_id = ? AND tr.stop IS NOT NULL
		ORDER BY tr.start`), phaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to read billed intervals: %w", err)
	}
	return intervals, nil
}
