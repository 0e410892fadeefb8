package usecase

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"object-detection-service/internal/domain"
	"object-detection-service/internal/repository"
	"object-detection-service/internal/testutil"
)

// gatedDetector holds every caller inside Detect until all of them have
// arrived, so a detector that serialised callers would never open the gate.
type gatedDetector struct {
	arrived sync.WaitGroup
	release chan struct{}
}

func (d *gatedDetector) Detect(ctx context.Context, _ image.Image, cfg domain.InferenceConfig) (domain.DetectionSet, error) {
	d.arrived.Done()
	select {
	case <-d.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Each threshold yields its own class name and count.
	pct := int(cfg.ConfidenceThreshold*100 + 0.5)
	set := make(domain.DetectionSet, 0, pct%4+1)
	for i := 0; i < pct%4+1; i++ {
		set = append(set, domain.Detection{
			ClassID:    pct,
			ClassName:  fmt.Sprintf("part_%d", pct),
			Confidence: cfg.ConfidenceThreshold,
			Box:        domain.Box{X1: i, Y1: i, X2: i + 2, Y2: i + 2},
		})
	}
	return set, nil
}

func (d *gatedDetector) Close() error { return nil }

func TestPredictionUseCase_Predict_ConcurrentDefaultModel(t *testing.T) {
	const workers = 16

	det := &gatedDetector{release: make(chan struct{})}
	det.arrived.Add(workers)

	annotator := new(testutil.MockAnnotator)
	annotator.On("Annotate", mock.Anything, mock.Anything).
		Return(&domain.EncodedImage{MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8}}, nil)

	repo := repository.NewMemoryPredictionRepository(workers)
	uc := NewPredictionUseCase(NewModelProvider(det, new(testutil.MockDetectorLoader), t.TempDir()), annotator, repo)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	img := testutil.PNG(t, 8, 8, color.White)
	results := make([]*domain.PredictionResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conf := fmt.Sprintf("%.2f", 0.10+float64(i)/100)
			iou := fmt.Sprintf("%.2f", 0.30+float64(i)/100)
			results[i], errs[i] = uc.Predict(ctx, PredictInput{
				RequestID: fmt.Sprintf("req-%d", i),
				Image:     img,
				Params:    RawInferenceParams{Conf: &conf, IoU: &iou},
			})
		}(i)
	}

	gate := make(chan struct{})
	go func() {
		det.arrived.Wait()
		close(gate)
	}()
	select {
	case <-gate:
		close(det.release)
	case <-ctx.Done():
		t.Fatal("requests on the default model did not run concurrently")
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "worker %d", i)

		pct := 10 + i
		want := pct%4 + 1
		res := results[i]

		require.Len(t, res.Detections, want)
		for _, d := range res.Detections {
			assert.Equal(t, fmt.Sprintf("part_%d", pct), d.ClassName)
		}
		assert.Equal(t, []domain.ClassSummary{{
			ClassName:         fmt.Sprintf("part_%d", pct),
			Quantity:          want,
			AverageConfidence: domain.RoundConfidence(float64(pct) / 100),
		}}, res.Summary)

		rec, err := repo.GetByID(context.Background(), res.ID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("req-%d", i), rec.RequestID)
		assert.InDelta(t, float64(pct)/100, rec.Config.ConfidenceThreshold, 1e-9)
		assert.InDelta(t, 0.30+float64(i)/100, rec.Config.IoUThreshold, 1e-9)
		assert.Equal(t, want, rec.DetectionCount)
	}
}
