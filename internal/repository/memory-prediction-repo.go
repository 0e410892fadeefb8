package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"object-detection-service/internal/domain"
)

const DefaultMemoryCapacity = 1000

// MemoryPredictionRepository keeps the most recent predictions in process
// memory. Once capacity is reached the oldest record is evicted.
type MemoryPredictionRepository struct {
	mu       sync.RWMutex
	capacity int
	order    []uuid.UUID
	records  map[uuid.UUID]*domain.PredictionRecord
}

func NewMemoryPredictionRepository(capacity int) *MemoryPredictionRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryPredictionRepository{
		capacity: capacity,
		records:  make(map[uuid.UUID]*domain.PredictionRecord),
	}
}

func (r *MemoryPredictionRepository) Save(ctx context.Context, rec *domain.PredictionRecord) error {
	cp := *rec
	cp.Summary = append([]domain.ClassSummary(nil), rec.Summary...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; !exists {
		r.order = append(r.order, rec.ID)
	}
	r.records[rec.ID] = &cp

	for len(r.order) > r.capacity {
		delete(r.records, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *MemoryPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PredictionRecord, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrPredictionNotFound
	}
	cp := *rec
	return &cp, nil
}

// List returns records newest first.
func (r *MemoryPredictionRepository) List(ctx context.Context, filter domain.PredictionListFilter) ([]*domain.PredictionRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.order)
	items := make([]*domain.PredictionRecord, 0, filter.Limit)
	for i := total - 1 - filter.Offset; i >= 0 && len(items) < filter.Limit; i-- {
		cp := *r.records[r.order[i]]
		items = append(items, &cp)
	}
	return items, total, nil
}

var _ domain.PredictionRepository = (*MemoryPredictionRepository)(nil)
