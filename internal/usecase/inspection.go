package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/domain"
)

type InspectionUseCase struct {
	predictUC   *PredictionUseCase
	boms        domain.BOMRepository
	inspections domain.InspectionRepository
}

func NewInspectionUseCase(predictUC *PredictionUseCase, boms domain.BOMRepository, inspections domain.InspectionRepository) *InspectionUseCase {
	return &InspectionUseCase{predictUC: predictUC, boms: boms, inspections: inspections}
}

// Inspect runs a prediction on the kit photo, compares the detected parts
// with the BOM and stores the result as the BOM's current inspection.
func (uc *InspectionUseCase) Inspect(ctx context.Context, bomCode string, in PredictInput) (*domain.Inspection, error) {
	bomCode = strings.TrimSpace(bomCode)
	if bomCode == "" {
		return nil, fmt.Errorf("%w: bom code is required", domain.ErrInvalidBOM)
	}

	entries, err := uc.boms.ListEntries(ctx, bomCode)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrBOMNotFound
	}

	current, err := uc.inspections.Get(ctx, bomCode)
	switch {
	case err == nil && current.Finalized:
		return nil, domain.ErrInspectionFinalized
	case err != nil && !errors.Is(err, domain.ErrInspectionNotFound):
		return nil, err
	}

	result, err := uc.predictUC.Predict(ctx, in)
	if err != nil {
		return nil, err
	}

	shortage, surplus := CompareBOM(entries, result.Summary)
	inspection := &domain.Inspection{
		BOMCode:       bomCode,
		PredictionID:  result.ID,
		ShortageItems: shortage,
		SurplusItems:  surplus,
		Summary:       result.Summary,
		UpdatedAt:     time.Now().UTC(),
	}
	if result.AnnotatedImage != nil {
		inspection.AnnotatedImage = result.AnnotatedImage.DataURL()
	}

	if err := uc.inspections.Save(ctx, inspection); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"request_id": in.RequestID,
		"bom_code":   bomCode,
		"shortages":  len(shortage),
		"surpluses":  len(surplus),
	}).Info("inspection recorded")

	return inspection, nil
}

func (uc *InspectionUseCase) Get(ctx context.Context, bomCode string) (*domain.Inspection, error) {
	return uc.inspections.Get(ctx, strings.TrimSpace(bomCode))
}

// Reset drops the inspection and its action items so the kit can be inspected again.
func (uc *InspectionUseCase) Reset(ctx context.Context, bomCode string) error {
	return uc.inspections.Delete(ctx, strings.TrimSpace(bomCode))
}

// Finalize records the follow-up items for an inspection and locks it.
func (uc *InspectionUseCase) Finalize(ctx context.Context, bomCode string, items []*domain.ActionItem) error {
	bomCode = strings.TrimSpace(bomCode)
	if len(items) == 0 {
		return fmt.Errorf("%w: no items given", domain.ErrInvalidActionItem)
	}

	now := time.Now().UTC()
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		item.BOMCode = bomCode
		item.PartName = strings.TrimSpace(item.PartName)
		item.Status = domain.ActionStatusNew
		item.CreatedAt = now
		item.UpdatedAt = now
	}

	if err := uc.inspections.Finalize(ctx, bomCode, items); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"bom_code": bomCode,
		"items":    len(items),
	}).Info("inspection finalized")
	return nil
}

func (uc *InspectionUseCase) ListActionItems(ctx context.Context) ([]*domain.ActionItem, error) {
	return uc.inspections.ListActionItems(ctx)
}

func (uc *InspectionUseCase) UpdateActionItemStatus(ctx context.Context, id int64, status domain.ActionStatus) (*domain.ActionItem, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidActionItem, status)
	}
	return uc.inspections.UpdateActionItemStatus(ctx, id, status)
}
