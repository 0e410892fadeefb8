package dto

import (
	"time"

	"object-detection-service/internal/domain"
)

const timeFormat = time.RFC3339

func ToClassSummaryResponses(summary []domain.ClassSummary) []ClassSummaryResponse {
	out := make([]ClassSummaryResponse, 0, len(summary))
	for _, s := range summary {
		out = append(out, ClassSummaryResponse{
			ClassName:         s.ClassName,
			Quantity:          s.Quantity,
			AverageConfidence: s.AverageConfidence,
		})
	}
	return out
}

func ToPredictResponse(r *domain.PredictionResult) PredictResponse {
	resp := PredictResponse{Summary: ToClassSummaryResponses(r.Summary)}
	if r.AnnotatedImage != nil {
		resp.AnnotatedImage = r.AnnotatedImage.DataURL()
	}
	return resp
}

func ToDetectionResponses(set domain.DetectionSet) []DetectionResponse {
	out := make([]DetectionResponse, 0, len(set))
	for _, d := range set {
		out = append(out, DetectionResponse{
			ClassID:    d.ClassID,
			ClassName:  d.ClassName,
			Confidence: domain.RoundConfidence(d.Confidence),
			Box:        [4]int{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
		})
	}
	return out
}

func FromDetectionResponses(items []DetectionResponse) domain.DetectionSet {
	out := make(domain.DetectionSet, 0, len(items))
	for _, d := range items {
		out = append(out, domain.Detection{
			ClassID:    d.ClassID,
			ClassName:  d.ClassName,
			Confidence: d.Confidence,
			Box:        domain.Box{X1: d.Box[0], Y1: d.Box[1], X2: d.Box[2], Y2: d.Box[3]},
		})
	}
	return out
}

func ToCLIDetections(set domain.DetectionSet) []CLIDetection {
	out := make([]CLIDetection, 0, len(set))
	for _, d := range set {
		out = append(out, CLIDetection{
			ClassName:  d.ClassName,
			Confidence: domain.RoundConfidence(d.Confidence),
			Box:        [4]int{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
		})
	}
	return out
}

func ToPredictionRecordResponse(r *domain.PredictionRecord) PredictionRecordResponse {
	return PredictionRecordResponse{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt.Format(timeFormat),
		RequestID:     r.RequestID,
		ImageFilename: r.ImageFilename,
		ModelSource:   string(r.ModelSource),
		ModelFilename: r.ModelFilename,
		Config: InferenceConfigResponse{
			ConfidenceThreshold: r.Config.ConfidenceThreshold,
			IoUThreshold:        r.Config.IoUThreshold,
			ClassAgnosticNMS:    r.Config.ClassAgnosticNMS,
		},
		DetectionCount: r.DetectionCount,
		Summary:        ToClassSummaryResponses(r.Summary),
		LatencyMs:      r.LatencyMs,
	}
}
