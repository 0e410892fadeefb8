package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"object-detection-service/internal/usecase"
)

// Pinger reports database reachability; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Backend       string
	MaxUploadSize int64
	// DB is nil when prediction history is kept in memory.
	DB Pinger
}

type Handler struct {
	predictUC *usecase.PredictionUseCase
	historyUC *usecase.PredictionHistoryUseCase
	models    *usecase.ModelProvider
	opts      Options
}

func New(predictUC *usecase.PredictionUseCase, historyUC *usecase.PredictionHistoryUseCase, models *usecase.ModelProvider, opts Options) *Handler {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 64 << 20
	}
	return &Handler{
		predictUC: predictUC,
		historyUC: historyUC,
		models:    models,
		opts:      opts,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Inference
	r.POST("/predict", h.Predict)
	r.POST("/detect", h.Detect)

	// History
	r.GET("/predictions", h.ListPredictions)
	r.GET("/predictions/:id", h.GetPrediction)

	r.GET("/healthz", h.Health)
}
