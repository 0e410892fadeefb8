package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/domain"
	"object-detection-service/internal/dto"
	"object-detection-service/internal/middleware"
	"object-detection-service/internal/usecase"
)

var errPayloadTooLarge = errors.New("request body too large")

func (h *Handler) Predict(c *gin.Context) {
	in, cleanup, err := readPredictInput(c, h.opts.MaxUploadSize)
	defer cleanup()
	if err != nil {
		mapDomainError(c, err)
		return
	}

	result, err := h.predictUC.Predict(c.Request.Context(), in)
	if err != nil {
		log.WithError(err).WithField("request_id", in.RequestID).Error("predict failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictResponse(result))
}

// Detect returns the raw detections without rendering. Remote detectors use
// it as their upstream contract.
func (h *Handler) Detect(c *gin.Context) {
	in, cleanup, err := readPredictInput(c, h.opts.MaxUploadSize)
	defer cleanup()
	if err != nil {
		mapDomainError(c, err)
		return
	}

	detections, err := h.predictUC.Detect(c.Request.Context(), in)
	if err != nil {
		log.WithError(err).WithField("request_id", in.RequestID).Error("detect failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDetectionResponses(detections))
}

// readPredictInput collects the multipart fields. The returned cleanup must
// always be called; it closes the uploaded weights stream.
func readPredictInput(c *gin.Context, maxUploadSize int64) (usecase.PredictInput, func(), error) {
	cleanup := func() {}
	in := usecase.PredictInput{RequestID: c.GetString(middleware.RequestIDKey)}

	if err := parseMultipart(c, maxUploadSize); err != nil {
		if errors.Is(err, errPayloadTooLarge) {
			return in, cleanup, err
		}
		return in, cleanup, fmt.Errorf("%w: %v", domain.ErrMissingInput, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return in, cleanup, domain.ErrMissingInput
	}
	data, err := readAll(fileHeader)
	if err != nil {
		return in, cleanup, fmt.Errorf("read image: %w", err)
	}
	in.Image = data
	in.ImageFilename = fileHeader.Filename

	if v, ok := c.GetPostForm("conf"); ok {
		in.Params.Conf = &v
	}
	if v, ok := c.GetPostForm("iou"); ok {
		in.Params.IoU = &v
	}
	if v, ok := c.GetPostForm("agnostic_nms"); ok {
		in.Params.AgnosticNMS = &v
	}

	if modelHeader, err := c.FormFile("model"); err == nil && modelHeader.Filename != "" {
		f, err := modelHeader.Open()
		if err != nil {
			return in, cleanup, fmt.Errorf("%w: open uploaded model: %v", domain.ErrModelLoadFailure, err)
		}
		cleanup = func() { _ = f.Close() }
		in.Model = &domain.ModelUpload{Filename: modelHeader.Filename, Content: f}
	}

	return in, cleanup, nil
}

// parseMultipart caps the request body at maxSize. Oversized bodies yield
// errPayloadTooLarge; other parse errors are returned as is.
func parseMultipart(c *gin.Context, maxSize int64) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
	if err := c.Request.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request exceeds %d bytes", errPayloadTooLarge, tooLarge.Limit)
		}
		return err
	}
	return nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
