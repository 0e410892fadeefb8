package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BOMEntry is one required part of a bill of materials. PartName is matched
// against detector class names.
type BOMEntry struct {
	ID              int64
	BOMCode         string
	PartReference   string
	PartName        string
	PartDescription string
	Quantity        int
}

func (e *BOMEntry) Validate() error {
	e.BOMCode = strings.TrimSpace(e.BOMCode)
	e.PartName = strings.TrimSpace(e.PartName)
	if e.BOMCode == "" || e.PartName == "" {
		return fmt.Errorf("%w: bom_code and part_name are required", ErrInvalidBOM)
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("%w: quantity for %q must be greater than 0", ErrInvalidBOM, e.PartName)
	}
	return nil
}

// BOM groups the entries sharing a code with the state of its inspection.
type BOM struct {
	Code          string
	Entries       []*BOMEntry
	HasInspection bool
	Finalized     bool
}

// BOMStatus is the inspection state of one BOM code.
type BOMStatus struct {
	HasInspection bool
	Finalized     bool
}

type ShortageItem struct {
	PartName string `json:"part_name"`
	Required int    `json:"required"`
	Detected int    `json:"detected"`
	Shortage int    `json:"shortage"`
}

type SurplusItem struct {
	PartName string `json:"part_name"`
	Detected int    `json:"detected"`
	Required int    `json:"required"`
	Surplus  int    `json:"surplus"`
}

// Inspection is the latest comparison of a photographed kit against a BOM.
// There is at most one per BOM code.
type Inspection struct {
	BOMCode        string
	PredictionID   uuid.UUID
	ShortageItems  []ShortageItem
	SurplusItems   []SurplusItem
	Summary        []ClassSummary
	AnnotatedImage string
	Finalized      bool
	UpdatedAt      time.Time
}

// Complete reports whether the detected parts match the BOM exactly.
func (i *Inspection) Complete() bool {
	return len(i.ShortageItems) == 0 && len(i.SurplusItems) == 0
}

type ActionItemType string

const (
	ActionItemShortage ActionItemType = "shortage"
	ActionItemSurplus  ActionItemType = "surplus"
)

type ActionStatus string

const (
	ActionStatusNew        ActionStatus = "new"
	ActionStatusInProgress ActionStatus = "in_progress"
	ActionStatusDone       ActionStatus = "done"
)

func (s ActionStatus) Valid() bool {
	switch s {
	case ActionStatusNew, ActionStatusInProgress, ActionStatusDone:
		return true
	}
	return false
}

// ActionItem is a follow-up recorded when an inspection is finalized.
type ActionItem struct {
	ID           int64
	BOMCode      string
	PartName     string
	Type         ActionItemType
	QuantityDiff int
	Status       ActionStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *ActionItem) Validate() error {
	if strings.TrimSpace(a.PartName) == "" {
		return fmt.Errorf("%w: part_name is required", ErrInvalidActionItem)
	}
	if a.Type != ActionItemShortage && a.Type != ActionItemSurplus {
		return fmt.Errorf("%w: item_type %q must be shortage or surplus", ErrInvalidActionItem, a.Type)
	}
	if a.QuantityDiff <= 0 {
		return fmt.Errorf("%w: quantity_diff for %q must be greater than 0", ErrInvalidActionItem, a.PartName)
	}
	return nil
}
