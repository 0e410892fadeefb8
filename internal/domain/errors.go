package domain

import "errors"

// Client faults
var (
	ErrInvalidParameter = errors.New("invalid conf or iou value")
	ErrMissingInput     = errors.New("image file not found")
)

// Server faults
var (
	ErrModelUnavailable = errors.New("default model is not loaded")
	ErrModelLoadFailure = errors.New("failed to load custom model")
	ErrDecodeFailure    = errors.New("failed to decode image")
	ErrDetectionFailure = errors.New("failed to process image")
	ErrRenderFailure    = errors.New("failed to render annotated image")
)

var (
	ErrPredictionNotFound = errors.New("prediction not found")
)

// Bill of materials
var (
	ErrInvalidBOM          = errors.New("invalid bill of materials entry")
	ErrInvalidActionItem   = errors.New("invalid action item")
	ErrBOMNotFound         = errors.New("bill of materials not found")
	ErrBOMEntryConflict    = errors.New("part already listed for this bom code")
	ErrInspectionNotFound  = errors.New("no inspection result for this bom code")
	ErrInspectionFinalized = errors.New("inspection is already finalized")
	ErrActionItemNotFound  = errors.New("action item not found")
)
