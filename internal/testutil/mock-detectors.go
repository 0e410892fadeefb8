package testutil

import (
	"context"
	"image"

	"github.com/stretchr/testify/mock"

	"object-detection-service/internal/domain"
)

// MockDetector is a mock of domain.Detector.
type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Detect(ctx context.Context, img image.Image, cfg domain.InferenceConfig) (domain.DetectionSet, error) {
	args := m.Called(ctx, img, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.DetectionSet), args.Error(1)
}

func (m *MockDetector) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDetectorLoader is a mock of domain.DetectorLoader.
type MockDetectorLoader struct {
	mock.Mock
}

func (m *MockDetectorLoader) Load(ctx context.Context, weightsPath string) (domain.Detector, error) {
	args := m.Called(ctx, weightsPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Detector), args.Error(1)
}

// MockAnnotator is a mock of domain.Annotator.
type MockAnnotator struct {
	mock.Mock
}

func (m *MockAnnotator) Annotate(img image.Image, detections domain.DetectionSet) (*domain.EncodedImage, error) {
	args := m.Called(img, detections)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EncodedImage), args.Error(1)
}
