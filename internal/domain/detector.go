package domain

import (
	"context"
	"image"
)

// Detector runs object detection on a decoded image. Implementations must
// be safe for concurrent use.
type Detector interface {
	Detect(ctx context.Context, img image.Image, cfg InferenceConfig) (DetectionSet, error)
	Close() error
}

// DetectorLoader builds a Detector from a weights artifact on disk.
type DetectorLoader interface {
	Load(ctx context.Context, weightsPath string) (Detector, error)
}

// Annotator draws detections onto a copy of img and encodes the result.
type Annotator interface {
	Annotate(img image.Image, detections DetectionSet) (*EncodedImage, error)
}
