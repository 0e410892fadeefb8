package dto

import (
	"github.com/google/uuid"
)

type ClassSummaryResponse struct {
	ClassName         string  `json:"class_name"`
	Quantity          int     `json:"quantity"`
	AverageConfidence float64 `json:"avg_confidence"`
}

type PredictResponse struct {
	Summary        []ClassSummaryResponse `json:"summary"`
	AnnotatedImage string                 `json:"annotated_image"`
}

// DetectionResponse is one raw detection. It is also the wire format the
// remote detector expects from its upstream.
type DetectionResponse struct {
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	Box        [4]int  `json:"box"`
}

// CLIDetection is the per-detection line printed by cmd/predict.
type CLIDetection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	Box        [4]int  `json:"box"`
}

type InferenceConfigResponse struct {
	ConfidenceThreshold float64 `json:"conf"`
	IoUThreshold        float64 `json:"iou"`
	ClassAgnosticNMS    bool    `json:"agnostic_nms"`
}

type PredictionRecordResponse struct {
	ID             uuid.UUID               `json:"id"`
	CreatedAt      string                  `json:"created_at"`
	RequestID      string                  `json:"request_id,omitempty"`
	ImageFilename  string                  `json:"image_filename"`
	ModelSource    string                  `json:"model_source"`
	ModelFilename  string                  `json:"model_filename,omitempty"`
	Config         InferenceConfigResponse `json:"config"`
	DetectionCount int                     `json:"detection_count"`
	Summary        []ClassSummaryResponse  `json:"summary"`
	LatencyMs      int64                   `json:"latency_ms"`
}

type ListPredictionsResponse struct {
	Items      []PredictionRecordResponse `json:"items"`
	Total      int                        `json:"total"`
	PageSize   int                        `json:"page_size"`
	NextOffset int                        `json:"next_offset"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	DefaultModel string `json:"default_model"`
	Backend      string `json:"backend"`
	Database     string `json:"database,omitempty"`
}
