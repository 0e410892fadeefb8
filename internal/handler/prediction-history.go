package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/domain"
	"object-detection-service/internal/dto"
)

func (h *Handler) ListPredictions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, total, err := h.historyUC.List(c.Request.Context(), domain.PredictionListFilter{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.WithError(err).Error("list predictions failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.PredictionRecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.ToPredictionRecordResponse(r))
	}

	c.JSON(http.StatusOK, dto.ListPredictionsResponse{
		Items:      items,
		Total:      total,
		PageSize:   len(items),
		NextOffset: max(offset, 0) + len(items),
	})
}

func (h *Handler) GetPrediction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prediction id"})
		return
	}

	rec, err := h.historyUC.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictionRecordResponse(rec))
}
