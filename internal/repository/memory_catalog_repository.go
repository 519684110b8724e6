package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// MemoryCatalogRepository backs catalog and billing tests. Rates are
// looked up live through GetRate, so fee edits between aggregations
// behave exactly like the SQL join.
type MemoryCatalogRepository struct {
	mu     sync.Mutex
	items  map[int64]*models.ActionItem
	rates  map[int64]*models.ItemRate
	types  map[int64]*models.ItemType
	nextID int64
}

func NewMemoryCatalogRepository() *MemoryCatalogRepository {
	return &MemoryCatalogRepository{
		items:  make(map[int64]*models.ActionItem),
		rates:  make(map[int64]*models.ItemRate),
		types:  make(map[int64]*models.ItemType),
		nextID: 1,
	}
}

func (r *MemoryCatalogRepository) id() int64 {
	id := r.nextID
	r.nextID++
	return id
}

func (r *MemoryCatalogRepository) ListOpenItems(_ context.Context, projectID int64) ([]models.ActionItemDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ActionItemDetail
	for _, item := range r.items {
		if item.ProjectID != projectID || item.IsArchived() {
			continue
		}
		detail := models.ActionItemDetail{ID: item.ID, Name: item.Name}
		if t, ok := r.types[item.TypeID]; ok {
			detail.TypeDescription = t.Description
		}
		if rate, ok := r.rates[item.RateID]; ok {
			detail.RateDescription = rate.Description
			detail.FeePerHour = rate.FeePerHour
		}
		out = append(out, detail)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryCatalogRepository) GetActionItem(_ context.Context, id int64) (*models.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *MemoryCatalogRepository) UpsertActionItem(_ context.Context, item *models.ActionItem) error {
	if item.Name == "" {
		return &models.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == 0 {
		item.ID = r.id()
		item.ValidID = models.ValidID
	} else if _, ok := r.items[item.ID]; !ok {
		return models.ErrRecordNotFound
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *MemoryCatalogRepository) GetRate(_ context.Context, id int64) (*models.ItemRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rate, ok := r.rates[id]
	if !ok {
		return nil, models.ErrRateNotFound
	}
	cp := *rate
	return &cp, nil
}

func (r *MemoryCatalogRepository) UpsertRate(_ context.Context, rate *models.ItemRate) error {
	if rate.Description == "" {
		rate.Description = "Default Title"
	}
	if rate.FeePerHour < 0 {
		return &models.ValidationError{Field: "fee_per_hour", Reason: "must not be negative"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rate.ID == 0 {
		rate.ID = r.id()
		rate.ValidID = models.ValidID
	} else if _, ok := r.rates[rate.ID]; !ok {
		return models.ErrRateNotFound
	}
	cp := *rate
	r.rates[rate.ID] = &cp
	return nil
}

func (r *MemoryCatalogRepository) ListRates(_ context.Context) ([]models.ItemRate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ItemRate
	for _, rate := range r.rates {
		if rate.ValidID == models.ValidID {
			out = append(out, *rate)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}

func (r *MemoryCatalogRepository) ListTypes(_ context.Context) ([]models.ItemType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ItemType
	for _, typ := range r.types {
		if typ.ValidID == models.ValidID {
			out = append(out, *typ)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out, nil
}

func (r *MemoryCatalogRepository) UpsertType(_ context.Context, typ *models.ItemType) error {
	if typ.Description == "" {
		typ.Description = "Default Title"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if typ.ID == 0 {
		typ.ID = r.id()
		typ.ValidID = models.ValidID
	} else if _, ok := r.types[typ.ID]; !ok {
		return models.ErrTypeNotFound
	}
	cp := *typ
	r.types[typ.ID] = &cp
	return nil
}

func (r *MemoryCatalogRepository) ArchiveActionItem(_ context.Context, id int64) error {
	return r.setItemValid(id, models.ArchivedID)
}

func (r *MemoryCatalogRepository) RetrieveActionItem(_ context.Context, id int64) error {
	return r.setItemValid(id, models.ValidID)
}

func (r *MemoryCatalogRepository) setItemValid(id int64, validID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return models.ErrRecordNotFound
	}
	item.ValidID = validID
	return nil
}

func (r *MemoryCatalogRepository) ArchiveRate(_ context.Context, id int64) error {
	return r.setRateValid(id, models.ArchivedID)
}

func (r *MemoryCatalogRepository) RetrieveRate(_ context.Context, id int64) error {
	return r.setRateValid(id, models.ValidID)
}

func (r *MemoryCatalogRepository) setRateValid(id int64, validID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rate, ok := r.rates[id]
	if !ok {
		return models.ErrRateNotFound
	}
	rate.ValidID = validID
	return nil
}

func (r *MemoryCatalogRepository) ArchiveType(_ context.Context, id int64) error {
	return r.setTypeValid(id, models.ArchivedID)
}

func (r *MemoryCatalogRepository) RetrieveType(_ context.Context, id int64) error {
	return r.setTypeValid(id, models.ValidID)
}

func (r *MemoryCatalogRepository) setTypeValid(id int64, validID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	typ, ok := r.types[id]
	if !ok {
		return models.ErrTypeNotFound
	}
	typ.ValidID = validID
	return nil
}
