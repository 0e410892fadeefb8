package usecase

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"object-detection-service/internal/domain"
	"object-detection-service/internal/repository"
	"object-detection-service/internal/testutil"
)

type inspectionFixture struct {
	*predictionFixture
	boms        *repository.MemoryBOMRepository
	inspections *repository.MemoryInspectionRepository
	uc          *InspectionUseCase
}

func newInspectionFixture(t *testing.T) *inspectionFixture {
	pf := newPredictionFixture(t)
	f := &inspectionFixture{
		predictionFixture: pf,
		boms:              repository.NewMemoryBOMRepository(),
		inspections:       repository.NewMemoryInspectionRepository(),
	}
	f.uc = NewInspectionUseCase(pf.uc, f.boms, f.inspections)

	require.NoError(t, f.boms.AddEntries(context.Background(), []*domain.BOMEntry{
		{BOMCode: "KIT-1", PartName: "bolt", Quantity: 3},
		{BOMCode: "KIT-1", PartName: "nut", Quantity: 1},
	}))
	return f
}

func (f *inspectionFixture) expectPrediction(detections domain.DetectionSet) {
	f.def.On("Detect", mock.Anything, mock.Anything, mock.Anything).Return(detections, nil)
	f.annotator.On("Annotate", mock.Anything, mock.Anything).
		Return(&domain.EncodedImage{MIMEType: "image/jpeg", Data: []byte("abc")}, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)
}

func inspectInput(t *testing.T) PredictInput {
	return PredictInput{RequestID: "req-1", Image: testutil.PNG(t, 8, 8, color.White), ImageFilename: "kit.png"}
}

func TestInspectionUseCase_Inspect(t *testing.T) {
	f := newInspectionFixture(t)
	f.expectPrediction(domain.DetectionSet{
		{ClassName: "bolt", Confidence: 0.9, Box: domain.Box{X2: 2, Y2: 2}},
		{ClassName: "bolt", Confidence: 0.8, Box: domain.Box{X2: 2, Y2: 2}},
		{ClassName: "nut", Confidence: 0.7, Box: domain.Box{X2: 2, Y2: 2}},
		{ClassName: "nut", Confidence: 0.6, Box: domain.Box{X2: 2, Y2: 2}},
	})
	ctx := context.Background()

	got, err := f.uc.Inspect(ctx, " KIT-1 ", inspectInput(t))
	require.NoError(t, err)

	assert.Equal(t, "KIT-1", got.BOMCode)
	assert.Equal(t, []domain.ShortageItem{{PartName: "bolt", Required: 3, Detected: 2, Shortage: 1}}, got.ShortageItems)
	assert.Equal(t, []domain.SurplusItem{{PartName: "nut", Detected: 2, Required: 1, Surplus: 1}}, got.SurplusItems)
	assert.Equal(t, "data:image/jpeg;base64,YWJj", got.AnnotatedImage)
	assert.False(t, got.Complete())

	stored, err := f.inspections.Get(ctx, "KIT-1")
	require.NoError(t, err)
	assert.Equal(t, got.PredictionID, stored.PredictionID)
	assert.Len(t, stored.Summary, 2)
}

func TestInspectionUseCase_Inspect_UnknownBOM(t *testing.T) {
	f := newInspectionFixture(t)

	_, err := f.uc.Inspect(context.Background(), "KIT-404", inspectInput(t))
	assert.ErrorIs(t, err, domain.ErrBOMNotFound)
	f.def.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything)

	_, err = f.uc.Inspect(context.Background(), "  ", inspectInput(t))
	assert.ErrorIs(t, err, domain.ErrInvalidBOM)
}

func TestInspectionUseCase_Inspect_PredictionFailure(t *testing.T) {
	f := newInspectionFixture(t)

	_, err := f.uc.Inspect(context.Background(), "KIT-1", PredictInput{})
	assert.ErrorIs(t, err, domain.ErrMissingInput)

	_, err = f.inspections.Get(context.Background(), "KIT-1")
	assert.ErrorIs(t, err, domain.ErrInspectionNotFound)
}

func TestInspectionUseCase_FinalizeLocksInspection(t *testing.T) {
	f := newInspectionFixture(t)
	f.expectPrediction(domain.DetectionSet{{ClassName: "bolt", Confidence: 0.9, Box: domain.Box{X2: 2, Y2: 2}}})
	ctx := context.Background()

	_, err := f.uc.Inspect(ctx, "KIT-1", inspectInput(t))
	require.NoError(t, err)

	items := []*domain.ActionItem{
		{PartName: "bolt", Type: domain.ActionItemShortage, QuantityDiff: 2},
		{PartName: "nut", Type: domain.ActionItemShortage, QuantityDiff: 1},
	}
	require.NoError(t, f.uc.Finalize(ctx, "KIT-1", items))
	for _, item := range items {
		assert.NotZero(t, item.ID)
		assert.Equal(t, "KIT-1", item.BOMCode)
		assert.Equal(t, domain.ActionStatusNew, item.Status)
	}

	_, err = f.uc.Inspect(ctx, "KIT-1", inspectInput(t))
	assert.ErrorIs(t, err, domain.ErrInspectionFinalized)

	err = f.uc.Finalize(ctx, "KIT-1", []*domain.ActionItem{{PartName: "bolt", Type: domain.ActionItemShortage, QuantityDiff: 1}})
	assert.ErrorIs(t, err, domain.ErrInspectionFinalized)

	// Reset drops both the inspection and its action items.
	require.NoError(t, f.uc.Reset(ctx, "KIT-1"))
	listed, err := f.uc.ListActionItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = f.uc.Inspect(ctx, "KIT-1", inspectInput(t))
	assert.NoError(t, err)
}

func TestInspectionUseCase_Finalize_Validation(t *testing.T) {
	inspections := new(testutil.MockInspectionRepo)
	uc := NewInspectionUseCase(nil, new(testutil.MockBOMRepo), inspections)
	ctx := context.Background()

	cases := map[string][]*domain.ActionItem{
		"no items":     nil,
		"unknown type": {{PartName: "bolt", Type: "missing", QuantityDiff: 1}},
		"zero diff":    {{PartName: "bolt", Type: domain.ActionItemSurplus}},
		"empty part":   {{PartName: " ", Type: domain.ActionItemSurplus, QuantityDiff: 1}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			err := uc.Finalize(ctx, "KIT-1", items)
			assert.ErrorIs(t, err, domain.ErrInvalidActionItem)
		})
	}
	inspections.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything)
}

func TestInspectionUseCase_Finalize_NoInspection(t *testing.T) {
	f := newInspectionFixture(t)

	err := f.uc.Finalize(context.Background(), "KIT-1", []*domain.ActionItem{
		{PartName: "bolt", Type: domain.ActionItemShortage, QuantityDiff: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInspectionNotFound)
}

func TestInspectionUseCase_UpdateActionItemStatus(t *testing.T) {
	inspections := new(testutil.MockInspectionRepo)
	uc := NewInspectionUseCase(nil, new(testutil.MockBOMRepo), inspections)
	ctx := context.Background()

	_, err := uc.UpdateActionItemStatus(ctx, 1, "closed")
	assert.ErrorIs(t, err, domain.ErrInvalidActionItem)

	updated := &domain.ActionItem{ID: 1, Status: domain.ActionStatusDone}
	inspections.On("UpdateActionItemStatus", mock.Anything, int64(1), domain.ActionStatusDone).Return(updated, nil)
	inspections.On("UpdateActionItemStatus", mock.Anything, int64(2), domain.ActionStatusDone).Return(nil, domain.ErrActionItemNotFound)

	got, err := uc.UpdateActionItemStatus(ctx, 1, domain.ActionStatusDone)
	require.NoError(t, err)
	assert.Same(t, updated, got)

	_, err = uc.UpdateActionItemStatus(ctx, 2, domain.ActionStatusDone)
	assert.ErrorIs(t, err, domain.ErrActionItemNotFound)
}

func TestInspectionUseCase_Inspect_RepositoryError(t *testing.T) {
	boms := new(testutil.MockBOMRepo)
	uc := NewInspectionUseCase(nil, boms, new(testutil.MockInspectionRepo))

	boms.On("ListEntries", mock.Anything, "KIT-1").Return(nil, errors.New("db down"))

	_, err := uc.Inspect(context.Background(), "KIT-1", PredictInput{})
	assert.EqualError(t, err, "db down")
}
