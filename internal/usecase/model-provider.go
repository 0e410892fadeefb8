package usecase

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/domain"
)

const defaultWeightsExt = ".onnx"

// ActiveModel is the detector serving one request. Ephemeral models own a
// temporary weights file that Dispose removes.
type ActiveModel struct {
	Detector     domain.Detector
	Source       domain.ModelSource
	Filename     string
	artifactPath string
	once         sync.Once
}

func (m *ActiveModel) Ephemeral() bool {
	return m.Source == domain.ModelSourceCustom
}

// ArtifactPath is empty for the default model.
func (m *ActiveModel) ArtifactPath() string {
	return m.artifactPath
}

type ModelProvider struct {
	defaultModel domain.Detector
	loader       domain.DetectorLoader
	tempDir      string
}

// NewModelProvider accepts a nil defaultModel: the process then runs degraded
// and only requests carrying their own weights can be served.
func NewModelProvider(defaultModel domain.Detector, loader domain.DetectorLoader, tempDir string) *ModelProvider {
	return &ModelProvider{
		defaultModel: defaultModel,
		loader:       loader,
		tempDir:      tempDir,
	}
}

func (p *ModelProvider) DefaultLoaded() bool {
	return p.defaultModel != nil
}

// Resolve picks the detector for a request. When a custom model fails to load
// the returned handle is non-nil alongside the error and must still be disposed.
func (p *ModelProvider) Resolve(ctx context.Context, upload *domain.ModelUpload) (*ActiveModel, error) {
	if upload == nil || upload.Filename == "" {
		if p.defaultModel == nil {
			return nil, domain.ErrModelUnavailable
		}
		return &ActiveModel{Detector: p.defaultModel, Source: domain.ModelSourceDefault}, nil
	}

	path, err := p.materialize(upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelLoadFailure, err)
	}

	active := &ActiveModel{
		Source:       domain.ModelSourceCustom,
		Filename:     upload.Filename,
		artifactPath: path,
	}

	log.WithFields(log.Fields{
		"filename": upload.Filename,
		"path":     path,
	}).Info("using custom model")

	detector, err := p.loader.Load(ctx, path)
	if err != nil {
		return active, fmt.Errorf("%w: %v", domain.ErrModelLoadFailure, err)
	}
	active.Detector = detector

	return active, nil
}

func (p *ModelProvider) materialize(upload *domain.ModelUpload) (string, error) {
	ext := filepath.Ext(upload.Filename)
	if ext == "" {
		ext = defaultWeightsExt
	}

	f, err := os.CreateTemp(p.tempDir, "weights-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp weights file: %w", err)
	}
	defer f.Close()

	if upload.Content != nil {
		if _, err := io.Copy(f, upload.Content); err != nil {
			removeArtifact(f.Name())
			return "", fmt.Errorf("write temp weights file: %w", err)
		}
	}

	return f.Name(), nil
}

// Dispose releases an ephemeral model at most once. It never fails: errors
// are logged and swallowed.
func (p *ModelProvider) Dispose(m *ActiveModel) {
	if m == nil || !m.Ephemeral() {
		return
	}

	m.once.Do(func() {
		closeDetector(m.Detector)
		removeArtifact(m.artifactPath)
	})
}

func closeDetector(d domain.Detector) {
	if d == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("close custom model panicked")
		}
	}()
	if err := d.Close(); err != nil {
		log.WithError(err).Warn("close custom model failed")
	}
}

func removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		log.WithError(err).WithField("path", path).Error("remove temporary model file failed")
		return
	}
	log.WithField("path", path).Info("temporary model file removed")
}
