package domain

import (
	"context"

	"github.com/google/uuid"
)

type PredictionListFilter struct {
	Limit  int
	Offset int
}

type PredictionRepository interface {
	Save(ctx context.Context, record *PredictionRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*PredictionRecord, error)
	List(ctx context.Context, filter PredictionListFilter) ([]*PredictionRecord, int, error)
}

type BOMRepository interface {
	// AddEntries stores all entries or none and fills in their IDs.
	AddEntries(ctx context.Context, entries []*BOMEntry) error
	// ListEntries returns every entry when bomCode is empty.
	ListEntries(ctx context.Context, bomCode string) ([]*BOMEntry, error)
}

type InspectionRepository interface {
	// Save replaces the inspection for its BOM code unless that one is finalized.
	Save(ctx context.Context, inspection *Inspection) error
	Get(ctx context.Context, bomCode string) (*Inspection, error)
	// Delete removes the inspection and its action items.
	Delete(ctx context.Context, bomCode string) error
	Statuses(ctx context.Context) (map[string]BOMStatus, error)
	// Finalize marks the inspection finalized and stores items in one step.
	Finalize(ctx context.Context, bomCode string, items []*ActionItem) error
	ListActionItems(ctx context.Context) ([]*ActionItem, error)
	UpdateActionItemStatus(ctx context.Context, id int64, status ActionStatus) (*ActionItem, error)
}
