package domain

import (
	"io"
	"time"

	"github.com/google/uuid"
)

type ModelSource string

const (
	ModelSourceDefault ModelSource = "default"
	ModelSourceCustom  ModelSource = "custom"
)

// ModelUpload is a weights file supplied with a request.
type ModelUpload struct {
	Filename string
	Content  io.Reader
}

// PredictionResult is the outcome of a successful /predict call.
type PredictionResult struct {
	ID             uuid.UUID
	Summary        []ClassSummary
	AnnotatedImage *EncodedImage
	Detections     DetectionSet
}

// PredictionRecord is the persisted trace of a prediction. The annotated
// image is not stored.
type PredictionRecord struct {
	ID             uuid.UUID       `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	RequestID      string          `json:"request_id"`
	ImageFilename  string          `json:"image_filename"`
	ModelSource    ModelSource     `json:"model_source"`
	ModelFilename  string          `json:"model_filename"`
	Config         InferenceConfig `json:"config"`
	DetectionCount int             `json:"detection_count"`
	Summary        []ClassSummary  `json:"summary"`
	LatencyMs      int64           `json:"latency_ms"`
}
