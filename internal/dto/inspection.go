package dto

import (
	"github.com/google/uuid"
)

type BOMEntryRequest struct {
	BOMCode         string `json:"bom_code"`
	PartReference   string `json:"part_reference"`
	PartName        string `json:"part_name"`
	PartDescription string `json:"part_description"`
	Quantity        int    `json:"quantity"`
}

type BOMEntryResponse struct {
	ID              int64  `json:"id"`
	BOMCode         string `json:"bom_code"`
	PartReference   string `json:"part_reference"`
	PartName        string `json:"part_name"`
	PartDescription string `json:"part_description"`
	Quantity        int    `json:"quantity"`
}

type BOMResponse struct {
	BOMCode       string             `json:"bom_code"`
	Entries       []BOMEntryResponse `json:"entries"`
	HasInspection bool               `json:"has_inspection"`
	IsFinalized   bool               `json:"is_finalized"`
}

type ImportBOMResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type ShortageItemResponse struct {
	PartName string `json:"part_name"`
	Required int    `json:"required"`
	Detected int    `json:"detected"`
	Shortage int    `json:"shortage"`
}

type SurplusItemResponse struct {
	PartName string `json:"part_name"`
	Detected int    `json:"detected"`
	Required int    `json:"required"`
	Surplus  int    `json:"surplus"`
}

type InspectionResponse struct {
	BOMCode        string                 `json:"bom_code"`
	PredictionID   uuid.UUID              `json:"prediction_id"`
	Complete       bool                   `json:"complete"`
	ShortageItems  []ShortageItemResponse `json:"shortage_items"`
	SurplusItems   []SurplusItemResponse  `json:"surplus_items"`
	Summary        []ClassSummaryResponse `json:"summary"`
	AnnotatedImage string                 `json:"annotated_image"`
	IsFinalized    bool                   `json:"is_finalized"`
	UpdatedAt      string                 `json:"updated_at"`
}

type ActionItemRequest struct {
	PartName     string `json:"part_name"`
	ItemType     string `json:"item_type"`
	QuantityDiff int    `json:"quantity_diff"`
}

type FinalizeInspectionRequest struct {
	Items []ActionItemRequest `json:"items" binding:"required"`
}

type ActionItemResponse struct {
	ID           int64  `json:"id"`
	BOMCode      string `json:"bom_code"`
	PartName     string `json:"part_name"`
	ItemType     string `json:"item_type"`
	QuantityDiff int    `json:"quantity_diff"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type UpdateActionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
