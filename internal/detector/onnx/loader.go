package onnx

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/semaphore"

	"object-detection-service/internal/detector/yolo"
	"object-detection-service/internal/domain"
)

const namesMetadataKey = "names"

// yoloStrides are the detection head strides of YOLOv8 exports, used to size
// the output when the graph declares dynamic dimensions.
var yoloStrides = []int{8, 16, 32}

type Options struct {
	// InputSize is used only when the graph declares a dynamic input.
	InputSize      int
	IntraOpThreads int
	// MaxConcurrency bounds in-flight Run calls per detector; 0 means unbounded.
	MaxConcurrency int
	// FallbackNames apply when the weights carry no names metadata.
	FallbackNames []string
}

type Loader struct {
	opts Options
}

// NewLoader expects InitEnvironment to have succeeded.
func NewLoader(opts Options) *Loader {
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	return &Loader{opts: opts}
}

func (l *Loader) Load(_ context.Context, weightsPath string) (domain.Detector, error) {
	d, err := l.New(weightsPath)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (l *Loader) New(weightsPath string) (*Detector, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(weightsPath)
	if err != nil {
		return nil, fmt.Errorf("read model io info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("expected 1 input and at least 1 output, got %d and %d", len(inputs), len(outputs))
	}

	size, err := inputSize(inputs[0].Dimensions, l.opts.InputSize)
	if err != nil {
		return nil, err
	}
	outShape, err := outputShape(outputs[0].Dimensions, size)
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	if l.opts.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(l.opts.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("set intra op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(weightsPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, options)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	names := readNames(weightsPath, int(outShape[1])-4)
	if len(names) == 0 {
		names = l.opts.FallbackNames
	}

	d := &Detector{
		session:     session,
		inputSize:   size,
		outputShape: outShape,
		names:       names,
	}
	if l.opts.MaxConcurrency > 0 {
		d.sem = semaphore.NewWeighted(int64(l.opts.MaxConcurrency))
	}

	log.WithFields(log.Fields{
		"path":         weightsPath,
		"input":        inputs[0].Name,
		"output":       outputs[0].Name,
		"input_size":   size,
		"output_shape": outShape.String(),
		"classes":      len(names),
	}).Info("onnx model loaded")

	return d, nil
}

func readNames(path string, numClasses int) []string {
	meta, err := ort.GetModelMetadata(path)
	if err != nil {
		log.WithError(err).Debug("read model metadata failed")
		return nil
	}
	defer meta.Destroy()

	value, ok, err := meta.LookupCustomMetadataMap(namesMetadataKey)
	if err != nil || !ok {
		return nil
	}
	return yolo.ParseNames(value, numClasses)
}

// inputSize expects an NCHW square input.
func inputSize(dims ort.Shape, fallback int) (int, error) {
	if len(dims) != 4 || (dims[1] > 0 && dims[1] != 3) {
		return 0, fmt.Errorf("unsupported input shape %v", dims)
	}
	h, w := dims[2], dims[3]
	if h <= 0 || w <= 0 {
		return fallback, nil
	}
	if h != w {
		return 0, fmt.Errorf("non-square input %dx%d is not supported", w, h)
	}
	return int(h), nil
}

// outputShape resolves a [batch, 4+nc, anchors] output, filling dynamic batch
// and anchor dimensions.
func outputShape(dims ort.Shape, size int) (ort.Shape, error) {
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unsupported output shape %v", dims)
	}
	shape := ort.NewShape(1, dims[1], dims[2])
	if shape[2] <= 0 {
		anchors := 0
		for _, s := range yoloStrides {
			anchors += (size / s) * (size / s)
		}
		shape[2] = int64(anchors)
	}
	return shape, nil
}
