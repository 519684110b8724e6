package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

type MemoryTimeRecordRepository struct {
	mu      sync.Mutex
	records map[int64]*models.TimeRecord
	nextID  int64
}

func NewMemoryTimeRecordRepository() *MemoryTimeRecordRepository {
	return &MemoryTimeRecordRepository{records: make(map[int64]*models.TimeRecord), nextID: 1}
}

func (r *MemoryTimeRecordRepository) GetByID(_ context.Context, id int64) (*models.TimeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *MemoryTimeRecordRepository) ListByPhase(_ context.Context, phaseID int64) ([]models.TimeRecord, error) {
	return r.list(func(rec *models.TimeRecord) bool { return rec.PhaseID == phaseID }), nil
}

func (r *MemoryTimeRecordRepository) ListByProject(_ context.Context, projectID int64) ([]models.TimeRecord, error) {
	return r.list(func(rec *models.TimeRecord) bool { return rec.ProjectID == projectID }), nil
}

func (r *MemoryTimeRecordRepository) UpdateInterval(_ context.Context, id int64, start, stop time.Time, phaseID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	if rec.Stop == nil {
		return &models.ValidationError{Field: "record", Reason: "cannot edit an open interval"}
	}
	rec.Start = start
	stopCp := stop
	rec.Stop = &stopCp
	rec.PhaseID = phaseID
	return nil
}

func (r *MemoryTimeRecordRepository) list(keep func(*models.TimeRecord) bool) []models.TimeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TimeRecord
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Add seeds a record directly, for tests that need closed history.
func (r *MemoryTimeRecordRepository) Add(rec models.TimeRecord) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = r.nextID
	r.nextID++
	r.records[rec.ID] = &rec
	return rec.ID
}

func (r *MemoryTimeRecordRepository) insertOpen(actionItemID, projectID, phaseID int64, start time.Time) *models.TimeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &models.TimeRecord{
		ID:           r.nextID,
		ActionItemID: actionItemID,
		ProjectID:    projectID,
		PhaseID:      phaseID,
		Start:        start,
	}
	r.nextID++
	r.records[rec.ID] = rec
	cp := *rec
	return &cp
}

func (r *MemoryTimeRecordRepository) close(id int64, stop time.Time) (*models.TimeRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Stop != nil {
		return nil, false
	}
	stopCp := stop
	rec.Stop = &stopCp
	cp := *rec
	return &cp, true
}

// OpenCount reports how many open intervals exist; invariant tests use it.
func (r *MemoryTimeRecordRepository) OpenCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Stop == nil {
			n++
		}
	}
	return n
}
