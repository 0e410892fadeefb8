package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"object-detection-service/internal/domain"
)

// mapDomainError writes the error response. Server-side failures carry the
// wrapped cause so clients can see why a model or image was rejected.
func mapDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrMissingInput),
		errors.Is(err, domain.ErrInvalidBOM),
		errors.Is(err, domain.ErrInvalidActionItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, errPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrPredictionNotFound),
		errors.Is(err, domain.ErrBOMNotFound),
		errors.Is(err, domain.ErrInspectionNotFound),
		errors.Is(err, domain.ErrActionItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrBOMEntryConflict),
		errors.Is(err, domain.ErrInspectionFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
