// Package detector selects and builds the configured inference backend.
package detector

import (
	"context"
	"fmt"
	"os"

	"object-detection-service/internal/config"
	"object-detection-service/internal/detector/onnx"
	"object-detection-service/internal/detector/opencv"
	"object-detection-service/internal/detector/remote"
	"object-detection-service/internal/domain"
	"object-detection-service/internal/proxy"
)

// NewLoader returns the loader for cfg.Detector.Backend and a release func
// for process-wide backend state.
func NewLoader(cfg *config.Config) (domain.DetectorLoader, func(), error) {
	switch cfg.Detector.Backend {
	case config.BackendONNX:
		if err := onnx.InitEnvironment(cfg.ONNX.LibraryPath); err != nil {
			return nil, func() {}, fmt.Errorf("init onnxruntime: %w", err)
		}
		loader := onnx.NewLoader(onnx.Options{
			InputSize:      cfg.Detector.InputSize,
			IntraOpThreads: cfg.ONNX.IntraOpThreads,
			MaxConcurrency: cfg.Detector.MaxConcurrency,
			FallbackNames:  cfg.Model.ClassNames,
		})
		return loader, onnx.DestroyEnvironment, nil

	case config.BackendOpenCV:
		if !opencv.Available {
			return nil, func() {}, fmt.Errorf("backend %q requires a build with the gocv tag", cfg.Detector.Backend)
		}
		return opencv.NewLoader(cfg.Detector.InputSize, cfg.Model.ClassNames), func() {}, nil

	case config.BackendRemote:
		client := proxy.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout)
		return remote.NewLoader(client), func() {}, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown detector backend %q", cfg.Detector.Backend)
	}
}

// LoadDefault loads the process-wide default model. The remote backend defers
// to the upstream's own default and ignores MODEL_DEFAULT_PATH.
func LoadDefault(ctx context.Context, cfg *config.Config, loader domain.DetectorLoader) (domain.Detector, error) {
	path := cfg.Model.DefaultPath
	if cfg.Detector.Backend == config.BackendRemote {
		return loader.Load(ctx, "")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file not found at %s", path)
	}
	return loader.Load(ctx, path)
}
