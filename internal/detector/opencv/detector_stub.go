//go:build !gocv
// +build !gocv

package opencv

import (
	"context"
	"errors"

	"object-detection-service/internal/domain"
)

const Available = false

var errNotEnabled = errors.New("gocv build tag is not enabled")

type Loader struct{}

func NewLoader(int, []string) *Loader {
	return &Loader{}
}

// Load always fails when the binary is built without OpenCV.
func (l *Loader) Load(context.Context, string) (domain.Detector, error) {
	return nil, errNotEnabled
}
