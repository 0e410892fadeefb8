// Package onnx implements domain.Detector on top of ONNX Runtime for
// YOLOv8-style exports.
package onnx

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/semaphore"

	"object-detection-service/internal/detector/yolo"
	"object-detection-service/internal/domain"
)

// Detector shares one session between callers. Every Detect call allocates
// its own tensors, so concurrent calls do not interfere.
type Detector struct {
	session     *ort.DynamicAdvancedSession
	inputSize   int
	outputShape ort.Shape
	names       []string
	sem         *semaphore.Weighted
	closeOnce   sync.Once
}

func (d *Detector) Names() []string {
	return d.names
}

func (d *Detector) Detect(ctx context.Context, img image.Image, cfg domain.InferenceConfig) (domain.DetectionSet, error) {
	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer d.sem.Release(1)
	}

	canvas, transform := yolo.Letterbox(img, d.inputSize)

	size := int64(d.inputSize)
	input, err := ort.NewTensor(ort.NewShape(1, 3, size, size), yolo.ToCHW(canvas))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](d.outputShape)
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := d.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	b := img.Bounds()
	detections, err := yolo.Postprocess(output.GetData(), d.outputShape, cfg, transform, b.Dx(), b.Dy(), d.names)
	if err != nil {
		return nil, fmt.Errorf("process predictions: %w", err)
	}
	return detections, nil
}

func (d *Detector) Close() error {
	var err error
	d.closeOnce.Do(func() {
		if d.session != nil {
			err = d.session.Destroy()
		}
	})
	return err
}
