package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/codec"
	"object-detection-service/internal/domain"
)

type PredictInput struct {
	RequestID     string
	Image         []byte
	ImageFilename string
	Params        RawInferenceParams
	Model         *domain.ModelUpload
}

type PredictionUseCase struct {
	models    *ModelProvider
	annotator domain.Annotator
	repo      domain.PredictionRepository
}

// NewPredictionUseCase accepts a nil repo, in which case predictions are not recorded.
func NewPredictionUseCase(models *ModelProvider, annotator domain.Annotator, repo domain.PredictionRepository) *PredictionUseCase {
	return &PredictionUseCase{models: models, annotator: annotator, repo: repo}
}

// Predict runs the full detection pipeline for one request. Once a model has
// been resolved it is disposed on every return path.
func (uc *PredictionUseCase) Predict(ctx context.Context, in PredictInput) (*domain.PredictionResult, error) {
	start := time.Now()

	if len(in.Image) == 0 {
		return nil, domain.ErrMissingInput
	}

	cfg, err := ParseInferenceConfig(in.Params)
	if err != nil {
		return nil, err
	}

	logger := log.WithField("request_id", in.RequestID)
	logger.WithFields(log.Fields{
		"conf":         cfg.ConfidenceThreshold,
		"iou":          cfg.IoUThreshold,
		"agnostic_nms": cfg.ClassAgnosticNMS,
	}).Debug("inference config")

	active, err := uc.models.Resolve(ctx, in.Model)
	defer uc.models.Dispose(active)
	if err != nil {
		return nil, err
	}

	decodeStart := time.Now()
	img, err := codec.Decode(in.Image)
	if err != nil {
		return nil, err
	}
	decodeTime := time.Since(decodeStart)

	inferStart := time.Now()
	detections, err := detect(ctx, active, img, cfg)
	if err != nil {
		return nil, err
	}
	inferTime := time.Since(inferStart)

	summary := Summarize(detections)

	renderStart := time.Now()
	annotated, err := uc.annotator.Annotate(img, detections)
	if err != nil {
		if errors.Is(err, domain.ErrRenderFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}
	renderTime := time.Since(renderStart)

	result := &domain.PredictionResult{
		ID:             uuid.New(),
		Summary:        summary,
		AnnotatedImage: annotated,
		Detections:     detections,
	}

	total := time.Since(start)
	logger.WithFields(log.Fields{
		"model_source": active.Source,
		"detections":   len(detections),
		"decode_ms":    decodeTime.Milliseconds(),
		"inference_ms": inferTime.Milliseconds(),
		"render_ms":    renderTime.Milliseconds(),
		"total_ms":     total.Milliseconds(),
	}).Debug("prediction timings")

	uc.record(ctx, in, active, cfg, result, total)

	return result, nil
}

func (uc *PredictionUseCase) record(ctx context.Context, in PredictInput, active *ActiveModel, cfg domain.InferenceConfig, result *domain.PredictionResult, latency time.Duration) {
	if uc.repo == nil {
		return
	}

	rec := &domain.PredictionRecord{
		ID:             result.ID,
		CreatedAt:      time.Now().UTC(),
		RequestID:      in.RequestID,
		ImageFilename:  in.ImageFilename,
		ModelSource:    active.Source,
		ModelFilename:  active.Filename,
		Config:         cfg,
		DetectionCount: len(result.Detections),
		Summary:        result.Summary,
		LatencyMs:      latency.Milliseconds(),
	}

	if err := uc.repo.Save(ctx, rec); err != nil {
		log.WithError(err).WithField("prediction_id", rec.ID).Warn("save prediction record failed")
	}
}

// Detect runs the same pipeline as Predict but stops after detection: no
// rendering and no history record.
func (uc *PredictionUseCase) Detect(ctx context.Context, in PredictInput) (domain.DetectionSet, error) {
	if len(in.Image) == 0 {
		return nil, domain.ErrMissingInput
	}

	cfg, err := ParseInferenceConfig(in.Params)
	if err != nil {
		return nil, err
	}

	active, err := uc.models.Resolve(ctx, in.Model)
	defer uc.models.Dispose(active)
	if err != nil {
		return nil, err
	}

	img, err := codec.Decode(in.Image)
	if err != nil {
		return nil, err
	}

	return detect(ctx, active, img, cfg)
}

func detect(ctx context.Context, active *ActiveModel, img image.Image, cfg domain.InferenceConfig) (domain.DetectionSet, error) {
	detections, err := active.Detector.Detect(ctx, img, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDetectionFailure, err)
	}
	if err := detections.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDetectionFailure, err)
	}
	return detections, nil
}
