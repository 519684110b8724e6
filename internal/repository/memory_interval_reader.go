package repository

import (
	"context"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// MemoryIntervalReader joins the memory record and catalog doubles the
// way the SQL reader joins tables. Fees are read at call time, so the
// live-rate semantics hold in tests too.
type MemoryIntervalReader struct {
	records *MemoryTimeRecordRepository
	catalog *MemoryCatalogRepository
}

func NewMemoryIntervalReader(records *MemoryTimeRecordRepository, catalog *MemoryCatalogRepository) *MemoryIntervalReader {
	return &MemoryIntervalReader{records: records, catalog: catalog}
}

func (r *MemoryIntervalReader) ClosedIntervalsByPhase(ctx context.Context, phaseID int64) ([]models.BilledInterval, error) {
	recs, err := r.records.ListByPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	var out []models.BilledInterval
	for _, rec := range recs {
		if rec.Stop == nil {
			continue
		}
		item, err := r.catalog.GetActionItem(ctx, rec.ActionItemID)
		if err != nil {
			return nil, err
		}
		iv := models.BilledInterval{
			ActionItemID:   item.ID,
			ActionItemName: item.Name,
			Start:          rec.Start,
			Stop:           *rec.Stop,
		}
		r.catalog.mu.Lock()
		if t, ok := r.catalog.types[item.TypeID]; ok {
			iv.TypeDescription = t.Description
		}
		if rate, ok := r.catalog.rates[item.RateID]; ok {
			iv.FeePerHour = rate.FeePerHour
		}
		r.catalog.mu.Unlock()
		out = append(out, iv)
	}
	return out, nil
}
