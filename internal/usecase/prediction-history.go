package usecase

import (
	"context"

	"github.com/google/uuid"

	"object-detection-service/internal/domain"
)

type PredictionHistoryUseCase struct {
	repo domain.PredictionRepository
}

func NewPredictionHistoryUseCase(repo domain.PredictionRepository) *PredictionHistoryUseCase {
	return &PredictionHistoryUseCase{repo: repo}
}

func (uc *PredictionHistoryUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.PredictionRecord, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *PredictionHistoryUseCase) List(ctx context.Context, filter domain.PredictionListFilter) ([]*domain.PredictionRecord, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.repo.List(ctx, filter)
}
