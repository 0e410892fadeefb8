package dto

import "object-detection-service/internal/domain"

func (r BOMEntryRequest) ToDomain() *domain.BOMEntry {
	return &domain.BOMEntry{
		BOMCode:         r.BOMCode,
		PartReference:   r.PartReference,
		PartName:        r.PartName,
		PartDescription: r.PartDescription,
		Quantity:        r.Quantity,
	}
}

func ToBOMEntryResponse(e *domain.BOMEntry) BOMEntryResponse {
	return BOMEntryResponse{
		ID:              e.ID,
		BOMCode:         e.BOMCode,
		PartReference:   e.PartReference,
		PartName:        e.PartName,
		PartDescription: e.PartDescription,
		Quantity:        e.Quantity,
	}
}

func ToBOMEntryResponses(entries []*domain.BOMEntry) []BOMEntryResponse {
	out := make([]BOMEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToBOMEntryResponse(e))
	}
	return out
}

func ToBOMResponses(boms []*domain.BOM) []BOMResponse {
	out := make([]BOMResponse, 0, len(boms))
	for _, b := range boms {
		out = append(out, BOMResponse{
			BOMCode:       b.Code,
			Entries:       ToBOMEntryResponses(b.Entries),
			HasInspection: b.HasInspection,
			IsFinalized:   b.Finalized,
		})
	}
	return out
}

func ToInspectionResponse(in *domain.Inspection) InspectionResponse {
	shortage := make([]ShortageItemResponse, 0, len(in.ShortageItems))
	for _, s := range in.ShortageItems {
		shortage = append(shortage, ShortageItemResponse(s))
	}
	surplus := make([]SurplusItemResponse, 0, len(in.SurplusItems))
	for _, s := range in.SurplusItems {
		surplus = append(surplus, SurplusItemResponse(s))
	}

	return InspectionResponse{
		BOMCode:        in.BOMCode,
		PredictionID:   in.PredictionID,
		Complete:       in.Complete(),
		ShortageItems:  shortage,
		SurplusItems:   surplus,
		Summary:        ToClassSummaryResponses(in.Summary),
		AnnotatedImage: in.AnnotatedImage,
		IsFinalized:    in.Finalized,
		UpdatedAt:      in.UpdatedAt.Format(timeFormat),
	}
}

func (r ActionItemRequest) ToDomain() *domain.ActionItem {
	return &domain.ActionItem{
		PartName:     r.PartName,
		Type:         domain.ActionItemType(r.ItemType),
		QuantityDiff: r.QuantityDiff,
	}
}

func ToActionItemResponse(a *domain.ActionItem) ActionItemResponse {
	return ActionItemResponse{
		ID:           a.ID,
		BOMCode:      a.BOMCode,
		PartName:     a.PartName,
		ItemType:     string(a.Type),
		QuantityDiff: a.QuantityDiff,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt.Format(timeFormat),
		UpdatedAt:    a.UpdatedAt.Format(timeFormat),
	}
}

func ToActionItemResponses(items []*domain.ActionItem) []ActionItemResponse {
	out := make([]ActionItemResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToActionItemResponse(a))
	}
	return out
}
