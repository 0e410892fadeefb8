package domain

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
)

const (
	DefaultConfidenceThreshold = 0.25
	DefaultIoUThreshold        = 0.7
)

// InferenceConfig holds the thresholds for a single detection call.
type InferenceConfig struct {
	ConfidenceThreshold float64 `json:"conf"`
	IoUThreshold        float64 `json:"iou"`
	ClassAgnosticNMS    bool    `json:"agnostic_nms"`
}

func DefaultInferenceConfig() InferenceConfig {
	return InferenceConfig{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		IoUThreshold:        DefaultIoUThreshold,
		ClassAgnosticNMS:    false,
	}
}

// Box is an axis-aligned rectangle in source image pixel coordinates.
type Box struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

func (b Box) Width() int  { return b.X2 - b.X1 }
func (b Box) Height() int { return b.Y2 - b.Y1 }

type Detection struct {
	ClassID    int
	ClassName  string
	Confidence float64
	Box        Box
}

// Validate rejects detections a detector should never produce.
func (d Detection) Validate() error {
	if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range", d.Confidence)
	}
	if d.ClassID < 0 {
		return fmt.Errorf("negative class id %d", d.ClassID)
	}
	if d.ClassName == "" {
		return fmt.Errorf("empty class name for class id %d", d.ClassID)
	}
	if d.Box.X2 < d.Box.X1 || d.Box.Y2 < d.Box.Y1 {
		return fmt.Errorf("malformed box %+v", d.Box)
	}
	return nil
}

// DetectionSet is the ordered output of one inference call.
type DetectionSet []Detection

func (s DetectionSet) Validate() error {
	for i, d := range s {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("detection %d: %w", i, err)
		}
	}
	return nil
}

type ClassSummary struct {
	ClassName         string  `json:"class_name"`
	Quantity          int     `json:"quantity"`
	AverageConfidence float64 `json:"avg_confidence"`
}

// EncodedImage is a compressed image ready for transport.
type EncodedImage struct {
	MIMEType string
	Data     []byte
}

func (e *EncodedImage) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", e.MIMEType, base64.StdEncoding.EncodeToString(e.Data))
}

// RoundConfidence rounds to 4 decimal places. Ties go to even, on the exact
// binary value, so 0.28125 becomes 0.2812.
func RoundConfidence(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 4, 64), 64)
	if err != nil {
		return v
	}
	return r
}
