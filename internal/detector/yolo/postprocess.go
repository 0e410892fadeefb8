package yolo

import (
	"fmt"
	"math"
	"sort"

	"object-detection-service/internal/domain"
)

const MaxDetections = 300

// Candidate is a decoded box in source pixel space before suppression.
type Candidate struct {
	ClassID int
	Score   float32
	X1      float64
	Y1      float64
	X2      float64
	Y2      float64
}

// Decode reads a [1, 4+nc, anchors] output tensor. Boxes are centre/size in
// letterbox pixels and are mapped back to the width x height source, clamped.
func Decode(output []float32, shape []int64, conf float64, t Transform, width, height int) ([]Candidate, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	channels, anchors := int(shape[1]), int(shape[2])
	if channels <= 4 {
		return nil, fmt.Errorf("output has no class channels: shape %v", shape)
	}
	if len(output) != channels*anchors {
		return nil, fmt.Errorf("output length %d does not match shape %v", len(output), shape)
	}

	numClasses := channels - 4
	candidates := make([]Candidate, 0, 64)
	for i := 0; i < anchors; i++ {
		classID, score := 0, float32(-1)
		for c := 0; c < numClasses; c++ {
			if v := output[(4+c)*anchors+i]; v > score {
				score = v
				classID = c
			}
		}
		// Negated so that a NaN threshold keeps nothing.
		if !(float64(score) >= conf) {
			continue
		}

		cx := float64(output[i])
		cy := float64(output[anchors+i])
		w := float64(output[2*anchors+i])
		h := float64(output[3*anchors+i])

		x1, y1 := t.ToSource(cx-w/2, cy-h/2)
		x2, y2 := t.ToSource(cx+w/2, cy+h/2)

		candidates = append(candidates, Candidate{
			ClassID: classID,
			Score:   score,
			X1:      clamp(x1, float64(width)),
			Y1:      clamp(y1, float64(height)),
			X2:      clamp(x2, float64(width)),
			Y2:      clamp(y2, float64(height)),
		})
	}
	return candidates, nil
}

func clamp(v, upper float64) float64 {
	return math.Min(math.Max(v, 0), upper)
}

// NMS greedily keeps the highest-scoring boxes, suppressing overlaps above
// iou. Overlaps only count within a class unless agnostic is set.
func NMS(candidates []Candidate, iou float64, agnostic bool) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	kept := make([]Candidate, 0, len(sorted))
	suppressed := make([]bool, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		if len(kept) == MaxDetections {
			break
		}
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] {
				continue
			}
			if !agnostic && sorted[i].ClassID != sorted[j].ClassID {
				continue
			}
			if IoU(sorted[i], sorted[j]) > iou {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func IoU(a, b Candidate) float64 {
	ix := math.Max(0, math.Min(a.X2, b.X2)-math.Max(a.X1, b.X1))
	iy := math.Max(0, math.Min(a.Y2, b.Y2)-math.Max(a.Y1, b.Y1))
	inter := ix * iy
	union := (a.X2-a.X1)*(a.Y2-a.Y1) + (b.X2-b.X1)*(b.Y2-b.Y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// ToDetections attaches class names and truncates boxes to integer pixels.
func ToDetections(candidates []Candidate, names []string) domain.DetectionSet {
	out := make(domain.DetectionSet, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.Detection{
			ClassID:    c.ClassID,
			ClassName:  ClassName(names, c.ClassID),
			Confidence: float64(c.Score),
			Box: domain.Box{
				X1: int(c.X1),
				Y1: int(c.Y1),
				X2: int(c.X2),
				Y2: int(c.Y2),
			},
		})
	}
	return out
}

func ClassName(names []string, id int) string {
	if id >= 0 && id < len(names) && names[id] != "" {
		return names[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// Postprocess runs Decode, NMS and ToDetections with the request thresholds.
func Postprocess(output []float32, shape []int64, cfg domain.InferenceConfig, t Transform, width, height int, names []string) (domain.DetectionSet, error) {
	candidates, err := Decode(output, shape, cfg.ConfidenceThreshold, t, width, height)
	if err != nil {
		return nil, err
	}
	kept := NMS(candidates, cfg.IoUThreshold, cfg.ClassAgnosticNMS)
	return ToDetections(kept, names), nil
}
