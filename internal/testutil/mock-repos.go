package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"object-detection-service/internal/domain"
)

// MockPredictionRepo is a mock of PredictionRepository.
type MockPredictionRepo struct {
	mock.Mock
}

func (m *MockPredictionRepo) Save(ctx context.Context, rec *domain.PredictionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockPredictionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PredictionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PredictionRecord), args.Error(1)
}

func (m *MockPredictionRepo) List(ctx context.Context, filter domain.PredictionListFilter) ([]*domain.PredictionRecord, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.PredictionRecord), args.Int(1), args.Error(2)
}

// MockBOMRepo is a mock of BOMRepository.
type MockBOMRepo struct {
	mock.Mock
}

func (m *MockBOMRepo) AddEntries(ctx context.Context, entries []*domain.BOMEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockBOMRepo) ListEntries(ctx context.Context, bomCode string) ([]*domain.BOMEntry, error) {
	args := m.Called(ctx, bomCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BOMEntry), args.Error(1)
}

// MockInspectionRepo is a mock of InspectionRepository.
type MockInspectionRepo struct {
	mock.Mock
}

func (m *MockInspectionRepo) Save(ctx context.Context, in *domain.Inspection) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockInspectionRepo) Get(ctx context.Context, bomCode string) (*domain.Inspection, error) {
	args := m.Called(ctx, bomCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inspection), args.Error(1)
}

func (m *MockInspectionRepo) Delete(ctx context.Context, bomCode string) error {
	args := m.Called(ctx, bomCode)
	return args.Error(0)
}

func (m *MockInspectionRepo) Statuses(ctx context.Context) (map[string]domain.BOMStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.BOMStatus), args.Error(1)
}

func (m *MockInspectionRepo) Finalize(ctx context.Context, bomCode string, items []*domain.ActionItem) error {
	args := m.Called(ctx, bomCode, items)
	return args.Error(0)
}

func (m *MockInspectionRepo) ListActionItems(ctx context.Context) ([]*domain.ActionItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ActionItem), args.Error(1)
}

func (m *MockInspectionRepo) UpdateActionItemStatus(ctx context.Context, id int64, status domain.ActionStatus) (*domain.ActionItem, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ActionItem), args.Error(1)
}
