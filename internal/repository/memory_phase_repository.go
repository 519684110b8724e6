package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

type MemoryPhaseRepository struct {
	mu      sync.Mutex
	phases  map[int64]*models.Phase
	nextID  int64
	records *MemoryTimeRecordRepository // optional, for summary minutes
}

func NewMemoryPhaseRepository(records *MemoryTimeRecordRepository) *MemoryPhaseRepository {
	return &MemoryPhaseRepository{phases: make(map[int64]*models.Phase), nextID: 1, records: records}
}

func (r *MemoryPhaseRepository) GetByID(_ context.Context, id int64) (*models.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.phases[id]
	if !ok {
		return nil, models.ErrPhaseNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryPhaseRepository) Latest(_ context.Context, projectID int64) (*models.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Phase
	for _, p := range r.phases {
		if p.ProjectID != projectID {
			continue
		}
		if latest == nil || p.Number > latest.Number {
			latest = p
		}
	}
	if latest == nil {
		return nil, models.ErrPhaseNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *MemoryPhaseRepository) CreateNext(_ context.Context, projectID int64) (*models.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, p := range r.phases {
		if p.ProjectID == projectID && p.Number > max {
			max = p.Number
		}
	}
	p := &models.Phase{ID: r.nextID, ProjectID: projectID, Number: max + 1}
	r.nextID++
	r.phases[p.ID] = p
	cp := *p
	return &cp, nil
}

func (r *MemoryPhaseRepository) ListByProject(ctx context.Context, projectID int64) ([]models.PhaseSummary, error) {
	r.mu.Lock()
	var phases []models.Phase
	for _, p := range r.phases {
		if p.ProjectID == projectID {
			phases = append(phases, *p)
		}
	}
	r.mu.Unlock()
	sort.Slice(phases, func(i, j int) bool { return phases[i].Number > phases[j].Number })

	minutes := make(map[int64]float64)
	if r.records != nil {
		recs, _ := r.records.ListByProject(ctx, projectID)
		for _, rec := range recs {
			minutes[rec.PhaseID] += rec.Minutes()
		}
	}

	out := make([]models.PhaseSummary, 0, len(phases))
	for _, p := range phases {
		out = append(out, models.PhaseSummary{
			ID:           p.ID,
			ProjectID:    p.ProjectID,
			Number:       p.Number,
			TotalMinutes: minutes[p.ID],
		})
	}
	return out, nil
}
