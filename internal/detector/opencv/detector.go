//go:build gocv
// +build gocv

// Package opencv runs YOLO ONNX exports through the OpenCV DNN module.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"object-detection-service/internal/detector/yolo"
	"object-detection-service/internal/domain"
)

const Available = true

// Detector serialises Forward calls: a dnn.Net is not safe for concurrent use.
type Detector struct {
	mu        sync.Mutex
	net       gocv.Net
	inputSize int
	names     []string
	closed    bool
}

func (d *Detector) Detect(ctx context.Context, img image.Image, cfg domain.InferenceConfig) (domain.DetectionSet, error) {
	canvas, transform := yolo.Letterbox(img, d.inputSize)

	mat, err := gocv.ImageToMatRGB(canvas)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(d.inputSize, d.inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	output, shape, err := d.forward(ctx, blob)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	detections, err := yolo.Postprocess(output, shape, cfg, transform, b.Dx(), b.Dy(), d.names)
	if err != nil {
		return nil, fmt.Errorf("process predictions: %w", err)
	}
	return detections, nil
}

func (d *Detector) forward(ctx context.Context, blob gocv.Mat) ([]float32, []int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, nil, errors.New("detector is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, nil, fmt.Errorf("read output: %w", err)
	}
	// out is released on return, so copy before leaving the lock.
	output := make([]float32, len(data))
	copy(output, data)

	dims := out.Size()
	shape := make([]int64, len(dims))
	for i, v := range dims {
		shape[i] = int64(v)
	}
	return output, shape, nil
}

func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}

type Loader struct {
	inputSize int
	names     []string
}

func NewLoader(inputSize int, names []string) *Loader {
	if inputSize <= 0 {
		inputSize = 640
	}
	return &Loader{inputSize: inputSize, names: names}
}

func (l *Loader) Load(_ context.Context, weightsPath string) (domain.Detector, error) {
	net := gocv.ReadNetFromONNX(weightsPath)
	if net.Empty() {
		return nil, fmt.Errorf("read onnx network from %s", weightsPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	log.WithFields(log.Fields{
		"path":       weightsPath,
		"input_size": l.inputSize,
		"classes":    len(l.names),
	}).Info("opencv model loaded")

	return &Detector{net: net, inputSize: l.inputSize, names: l.names}, nil
}
