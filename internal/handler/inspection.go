package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/domain"
	"object-detection-service/internal/dto"
	"object-detection-service/internal/usecase"
)

// InspectionHandler serves bills of materials, kit inspections against them
// and the action items recorded when an inspection is finalized.
type InspectionHandler struct {
	bomUC         *usecase.BOMUseCase
	inspectionUC  *usecase.InspectionUseCase
	maxUploadSize int64
}

func NewInspectionHandler(bomUC *usecase.BOMUseCase, inspectionUC *usecase.InspectionUseCase, maxUploadSize int64) *InspectionHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 64 << 20
	}
	return &InspectionHandler{bomUC: bomUC, inspectionUC: inspectionUC, maxUploadSize: maxUploadSize}
}

func (h *InspectionHandler) RegisterRoutes(r *gin.RouterGroup) {
	// Bills of materials
	r.GET("/boms", h.ListBOMs)
	r.POST("/boms", h.AddBOMEntry)
	r.POST("/boms/batch", h.AddBOMBatch)
	r.POST("/boms/import", h.ImportBOMs)
	r.GET("/boms/export", h.ExportBOMs)

	// Inspections
	r.POST("/inspections/:bomCode", h.Inspect)
	r.GET("/inspections/:bomCode", h.GetInspection)
	r.DELETE("/inspections/:bomCode", h.ResetInspection)
	r.POST("/inspections/:bomCode/finalize", h.FinalizeInspection)

	// Action items
	r.GET("/action-items", h.ListActionItems)
	r.PATCH("/action-items/:id/status", h.UpdateActionItemStatus)
}

func (h *InspectionHandler) ListBOMs(c *gin.Context) {
	boms, err := h.bomUC.List(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("list boms failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBOMResponses(boms))
}

func (h *InspectionHandler) AddBOMEntry(c *gin.Context) {
	var req dto.BOMEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	entry := req.ToDomain()
	if err := h.bomUC.AddEntry(c.Request.Context(), entry); err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToBOMEntryResponse(entry))
}

func (h *InspectionHandler) AddBOMBatch(c *gin.Context) {
	var req []dto.BOMEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	entries := make([]*domain.BOMEntry, 0, len(req))
	for _, r := range req {
		entries = append(entries, r.ToDomain())
	}
	if err := h.bomUC.AddBatch(c.Request.Context(), entries); err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToBOMEntryResponses(entries))
}

func (h *InspectionHandler) ImportBOMs(c *gin.Context) {
	if err := parseMultipart(c, h.maxUploadSize); err != nil {
		if !errors.Is(err, errPayloadTooLarge) {
			err = fmt.Errorf("%w: %v", domain.ErrInvalidBOM, err)
		}
		mapDomainError(c, err)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		mapDomainError(c, fmt.Errorf("%w: csv file not found", domain.ErrInvalidBOM))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		mapDomainError(c, fmt.Errorf("open csv file: %w", err))
		return
	}
	defer f.Close()

	imported, skipped, err := h.bomUC.Import(c.Request.Context(), f)
	if err != nil {
		log.WithError(err).WithField("filename", fileHeader.Filename).Warn("bom import failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ImportBOMResponse{Imported: imported, Skipped: skipped})
}

func (h *InspectionHandler) ExportBOMs(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.bomUC.Export(c.Request.Context(), &buf); err != nil {
		log.WithError(err).Error("export boms failed")
		mapDomainError(c, err)
		return
	}

	filename := fmt.Sprintf("boms_export_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *InspectionHandler) Inspect(c *gin.Context) {
	in, cleanup, err := readPredictInput(c, h.maxUploadSize)
	defer cleanup()
	if err != nil {
		mapDomainError(c, err)
		return
	}

	inspection, err := h.inspectionUC.Inspect(c.Request.Context(), c.Param("bomCode"), in)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"request_id": in.RequestID,
			"bom_code":   c.Param("bomCode"),
		}).Error("inspect failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToInspectionResponse(inspection))
}

func (h *InspectionHandler) GetInspection(c *gin.Context) {
	inspection, err := h.inspectionUC.Get(c.Request.Context(), c.Param("bomCode"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToInspectionResponse(inspection))
}

func (h *InspectionHandler) ResetInspection(c *gin.Context) {
	if err := h.inspectionUC.Reset(c.Request.Context(), c.Param("bomCode")); err != nil {
		mapDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InspectionHandler) FinalizeInspection(c *gin.Context) {
	var req dto.FinalizeInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	items := make([]*domain.ActionItem, 0, len(req.Items))
	for _, r := range req.Items {
		items = append(items, r.ToDomain())
	}
	if err := h.inspectionUC.Finalize(c.Request.Context(), c.Param("bomCode"), items); err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToActionItemResponses(items))
}

func (h *InspectionHandler) ListActionItems(c *gin.Context) {
	items, err := h.inspectionUC.ListActionItems(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("list action items failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToActionItemResponses(items))
}

func (h *InspectionHandler) UpdateActionItemStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action item id"})
		return
	}

	var req dto.UpdateActionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	item, err := h.inspectionUC.UpdateActionItemStatus(c.Request.Context(), id, domain.ActionStatus(req.Status))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToActionItemResponse(item))
}
