// Package remote delegates detection to another predictor over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/codec"
	"object-detection-service/internal/domain"
	"object-detection-service/internal/dto"
	"object-detection-service/internal/proxy"
)

const detectPath = "/detect"

// errorBodyLimit caps how much of a failed upstream response is echoed back.
const errorBodyLimit = 512

// Detector posts every image to the upstream /detect endpoint. A non-empty
// weightsPath is attached as the "model" field so the upstream loads it.
type Detector struct {
	client      *proxy.Client
	weightsPath string
}

func (d *Detector) Detect(ctx context.Context, img image.Image, cfg domain.InferenceConfig) (domain.DetectionSet, error) {
	payload, err := codec.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	body, contentType, err := d.buildForm(payload, cfg)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Forward(ctx, http.MethodPost, detectPath, body, http.Header{"Content-Type": []string{contentType}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var items []dto.DetectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	return dto.FromDetectionResponses(items), nil
}

func (d *Detector) buildForm(payload []byte, cfg domain.InferenceConfig) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}

	if d.weightsPath != "" {
		if err := attachFile(w, "model", d.weightsPath); err != nil {
			return nil, "", err
		}
	}

	fields := map[string]string{
		"conf":         strconv.FormatFloat(cfg.ConfidenceThreshold, 'f', -1, 64),
		"iou":          strconv.FormatFloat(cfg.IoUThreshold, 'f', -1, 64),
		"agnostic_nms": strconv.FormatBool(cfg.ClassAgnosticNMS),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open weights: %w", err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("write %s part: %w", field, err)
	}
	return nil
}

// Close is a no-op: the weights file belongs to whoever created it.
func (d *Detector) Close() error {
	return nil
}

type Loader struct {
	client *proxy.Client
}

func NewLoader(client *proxy.Client) *Loader {
	return &Loader{client: client}
}

// Load checks that the weights are readable so a bad upload fails before the
// image is sent upstream. An empty path selects the upstream's own default.
func (l *Loader) Load(_ context.Context, weightsPath string) (domain.Detector, error) {
	if weightsPath != "" {
		info, err := os.Stat(weightsPath)
		if err != nil {
			return nil, fmt.Errorf("stat weights: %w", err)
		}
		if info.Size() == 0 {
			return nil, fmt.Errorf("weights file %s is empty", filepath.Base(weightsPath))
		}
	}

	log.WithFields(log.Fields{
		"upstream": l.client.UpstreamURL(),
		"weights":  weightsPath,
	}).Debug("remote detector ready")

	return &Detector{client: l.client, weightsPath: weightsPath}, nil
}
