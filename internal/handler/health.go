package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/dto"
)

func (h *Handler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:       "ok",
		DefaultModel: "unavailable",
		Backend:      h.opts.Backend,
	}
	if h.models.DefaultLoaded() {
		resp.DefaultModel = "loaded"
	}

	if h.opts.DB != nil {
		if err := h.opts.DB.Ping(c.Request.Context()); err != nil {
			log.WithError(err).Warn("database ping failed")
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}

	c.JSON(http.StatusOK, resp)
}
