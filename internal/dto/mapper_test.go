package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"object-detection-service/internal/domain"
)

func TestToPredictResponse(t *testing.T) {
	r := &domain.PredictionResult{
		Summary:        []domain.ClassSummary{{ClassName: "bolt", Quantity: 2, AverageConfidence: 0.87}},
		AnnotatedImage: &domain.EncodedImage{MIMEType: "image/jpeg", Data: []byte("abc")},
	}

	raw, err := json.Marshal(ToPredictResponse(r))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"summary": [{"class_name": "bolt", "quantity": 2, "avg_confidence": 0.87}],
		"annotated_image": "data:image/jpeg;base64,YWJj"
	}`, string(raw))
}

func TestToPredictResponse_EmptySummaryIsArray(t *testing.T) {
	raw, err := json.Marshal(ToPredictResponse(&domain.PredictionResult{
		AnnotatedImage: &domain.EncodedImage{MIMEType: "image/jpeg"},
	}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"summary":[]`)
}

func TestDetectionResponses_RoundTrip(t *testing.T) {
	set := domain.DetectionSet{
		{ClassID: 3, ClassName: "nut", Confidence: 0.912345, Box: domain.Box{X1: 1, Y1: 2, X2: 30, Y2: 40}},
	}

	wire := ToDetectionResponses(set)
	require.Len(t, wire, 1)
	assert.Equal(t, 0.9123, wire[0].Confidence)
	assert.Equal(t, [4]int{1, 2, 30, 40}, wire[0].Box)

	back := FromDetectionResponses(wire)
	assert.Equal(t, 3, back[0].ClassID)
	assert.Equal(t, domain.Box{X1: 1, Y1: 2, X2: 30, Y2: 40}, back[0].Box)
}

func TestToCLIDetections(t *testing.T) {
	raw, err := json.Marshal(ToCLIDetections(domain.DetectionSet{
		{ClassID: 1, ClassName: "bolt", Confidence: 0.87654, Box: domain.Box{X1: 5, Y1: 6, X2: 7, Y2: 8}},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"class_name":"bolt","confidence":0.8765,"box":[5,6,7,8]}]`, string(raw))

	raw, err = json.Marshal(ToCLIDetections(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestToPredictionRecordResponse(t *testing.T) {
	id := uuid.New()
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	resp := ToPredictionRecordResponse(&domain.PredictionRecord{
		ID:             id,
		CreatedAt:      created,
		ImageFilename:  "a.jpg",
		ModelSource:    domain.ModelSourceCustom,
		ModelFilename:  "custom.onnx",
		Config:         domain.DefaultInferenceConfig(),
		DetectionCount: 4,
		LatencyMs:      12,
	})

	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "2025-03-01T10:00:00Z", resp.CreatedAt)
	assert.Equal(t, "custom", resp.ModelSource)
	assert.Equal(t, 0.25, resp.Config.ConfidenceThreshold)
	assert.NotNil(t, resp.Summary)
}
