package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"object-detection-service/internal/domain"
)

// MemoryBOMRepository keeps BOM entries in process memory.
type MemoryBOMRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries []domain.BOMEntry
}

func NewMemoryBOMRepository() *MemoryBOMRepository {
	return &MemoryBOMRepository{}
}

func (r *MemoryBOMRepository) AddEntries(ctx context.Context, entries []*domain.BOMEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[[2]string]bool, len(r.entries)+len(entries))
	for _, e := range r.entries {
		seen[[2]string{e.BOMCode, e.PartName}] = true
	}
	for _, e := range entries {
		key := [2]string{e.BOMCode, e.PartName}
		if seen[key] {
			return fmt.Errorf("%w: %s/%s", domain.ErrBOMEntryConflict, e.BOMCode, e.PartName)
		}
		seen[key] = true
	}

	for _, e := range entries {
		r.nextID++
		e.ID = r.nextID
		r.entries = append(r.entries, *e)
	}
	return nil
}

// ListEntries orders by code, then part name.
func (r *MemoryBOMRepository) ListEntries(ctx context.Context, bomCode string) ([]*domain.BOMEntry, error) {
	r.mu.RLock()
	out := make([]*domain.BOMEntry, 0)
	for _, e := range r.entries {
		if bomCode == "" || e.BOMCode == bomCode {
			cp := e
			out = append(out, &cp)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BOMCode != out[j].BOMCode {
			return out[i].BOMCode < out[j].BOMCode
		}
		return out[i].PartName < out[j].PartName
	})
	return out, nil
}

// MemoryInspectionRepository keeps inspections and action items in process
// memory.
type MemoryInspectionRepository struct {
	mu          sync.RWMutex
	nextID      int64
	inspections map[string]*domain.Inspection
	items       []*domain.ActionItem
}

func NewMemoryInspectionRepository() *MemoryInspectionRepository {
	return &MemoryInspectionRepository{inspections: make(map[string]*domain.Inspection)}
}

func (r *MemoryInspectionRepository) Save(ctx context.Context, in *domain.Inspection) error {
	cp := copyInspection(in)
	cp.Finalized = false

	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.inspections[in.BOMCode]; ok && cur.Finalized {
		return domain.ErrInspectionFinalized
	}
	r.inspections[in.BOMCode] = cp
	return nil
}

func (r *MemoryInspectionRepository) Get(ctx context.Context, bomCode string) (*domain.Inspection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	in, ok := r.inspections[bomCode]
	if !ok {
		return nil, domain.ErrInspectionNotFound
	}
	return copyInspection(in), nil
}

func (r *MemoryInspectionRepository) Delete(ctx context.Context, bomCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inspections[bomCode]; !ok {
		return domain.ErrInspectionNotFound
	}
	delete(r.inspections, bomCode)

	kept := r.items[:0]
	for _, item := range r.items {
		if item.BOMCode != bomCode {
			kept = append(kept, item)
		}
	}
	r.items = kept
	return nil
}

func (r *MemoryInspectionRepository) Statuses(ctx context.Context) (map[string]domain.BOMStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.BOMStatus, len(r.inspections))
	for code, in := range r.inspections {
		out[code] = domain.BOMStatus{HasInspection: true, Finalized: in.Finalized}
	}
	return out, nil
}

func (r *MemoryInspectionRepository) Finalize(ctx context.Context, bomCode string, items []*domain.ActionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.inspections[bomCode]
	if !ok {
		return domain.ErrInspectionNotFound
	}
	if in.Finalized {
		return domain.ErrInspectionFinalized
	}

	in.Finalized = true
	in.UpdatedAt = time.Now().UTC()
	for _, item := range items {
		r.nextID++
		item.ID = r.nextID
		cp := *item
		r.items = append(r.items, &cp)
	}
	return nil
}

// ListActionItems orders new before in_progress before done, newest first
// within a status.
func (r *MemoryInspectionRepository) ListActionItems(ctx context.Context) ([]*domain.ActionItem, error) {
	r.mu.RLock()
	out := make([]*domain.ActionItem, 0, len(r.items))
	for _, item := range r.items {
		cp := *item
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := statusRank(out[i].Status), statusRank(out[j].Status)
		if ri != rj {
			return ri < rj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryInspectionRepository) UpdateActionItemStatus(ctx context.Context, id int64, status domain.ActionStatus) (*domain.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items {
		if item.ID == id {
			item.Status = status
			item.UpdatedAt = time.Now().UTC()
			cp := *item
			return &cp, nil
		}
	}
	return nil, domain.ErrActionItemNotFound
}

func statusRank(s domain.ActionStatus) int {
	switch s {
	case domain.ActionStatusNew:
		return 0
	case domain.ActionStatusInProgress:
		return 1
	default:
		return 2
	}
}

func copyInspection(in *domain.Inspection) *domain.Inspection {
	cp := *in
	cp.ShortageItems = append([]domain.ShortageItem{}, in.ShortageItems...)
	cp.SurplusItems = append([]domain.SurplusItem{}, in.SurplusItems...)
	cp.Summary = append([]domain.ClassSummary{}, in.Summary...)
	return &cp
}

var (
	_ domain.BOMRepository        = (*MemoryBOMRepository)(nil)
	_ domain.InspectionRepository = (*MemoryInspectionRepository)(nil)
)
