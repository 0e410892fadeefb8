package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"object-detection-service/internal/domain"
)

// RawInferenceParams carries the untyped form fields. A nil field means the
// field was absent from the request.
type RawInferenceParams struct {
	Conf        *string
	IoU         *string
	AgnosticNMS *string
}

// ParseInferenceConfig does not clamp thresholds to [0,1]; out-of-range values
// reach the detector unchanged.
func ParseInferenceConfig(raw RawInferenceParams) (domain.InferenceConfig, error) {
	cfg := domain.DefaultInferenceConfig()

	if raw.Conf != nil {
		v, err := parseThreshold("conf", *raw.Conf)
		if err != nil {
			return domain.InferenceConfig{}, err
		}
		cfg.ConfidenceThreshold = v
	}
	if raw.IoU != nil {
		v, err := parseThreshold("iou", *raw.IoU)
		if err != nil {
			return domain.InferenceConfig{}, err
		}
		cfg.IoUThreshold = v
	}
	if raw.AgnosticNMS != nil {
		cfg.ClassAgnosticNMS = strings.EqualFold(*raw.AgnosticNMS, "true")
	}

	return cfg, nil
}

func parseThreshold(field, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", domain.ErrInvalidParameter, field, value)
	}
	return v, nil
}
