package handler

import (
	"encoding/base64"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"object-detection-service/internal/annotate"
	"object-detection-service/internal/codec"
	"object-detection-service/internal/domain"
	"object-detection-service/internal/middleware"
	"object-detection-service/internal/repository"
	"object-detection-service/internal/testutil"
	"object-detection-service/internal/usecase"
)

// setupE2ERouter wires the real annotator and in-memory history around a
// mock detector.
func setupE2ERouter(t *testing.T) (*testutil.MockDetector, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	det := new(testutil.MockDetector)

	repo := repository.NewMemoryPredictionRepository(10)
	models := usecase.NewModelProvider(det, new(testutil.MockDetectorLoader), t.TempDir())
	predictUC := usecase.NewPredictionUseCase(models, annotate.New(codec.DefaultJPEGQuality), repo)
	historyUC := usecase.NewPredictionHistoryUseCase(repo)

	h := New(predictUC, historyUC, models, Options{Backend: "onnx"})
	r := gin.New()
	r.Use(middleware.RequestID())
	h.RegisterRoutes(&r.RouterGroup)

	return det, r
}

// ---------------------------------------------------------------------------
// Helper: assert JSON field exists and has expected type
// ---------------------------------------------------------------------------

func assertFieldString(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok {
		_, isStr := val.(string)
		assert.True(t, isStr, "field %q should be string, got %T", key, val)
	}
}

func assertFieldNumber(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok {
		_, isNum := val.(float64)
		assert.True(t, isNum, "field %q should be number, got %T", key, val)
	}
}

func assertFieldBool(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok {
		_, isBool := val.(bool)
		assert.True(t, isBool, "field %q should be bool, got %T", key, val)
	}
}

func assertFieldMap(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok && val != nil {
		_, isMap := val.(map[string]interface{})
		assert.True(t, isMap, "field %q should be object/map, got %T", key, val)
	}
}

func assertFieldArray(t *testing.T, resp map[string]interface{}, key string) {
	t.Helper()
	val, ok := resp[key]
	assert.True(t, ok, "response missing field %q", key)
	if ok {
		_, isArr := val.([]interface{})
		assert.True(t, isArr, "field %q should be array, got %T", key, val)
	}
}

func assertSummaryFields(t *testing.T, resp map[string]interface{}) {
	t.Helper()
	assertFieldString(t, resp, "class_name")
	assertFieldNumber(t, resp, "quantity")
	assertFieldNumber(t, resp, "avg_confidence")
}

func assertRecordFields(t *testing.T, resp map[string]interface{}) {
	t.Helper()
	assertFieldString(t, resp, "id")
	assertFieldString(t, resp, "created_at")
	assertFieldString(t, resp, "image_filename")
	assertFieldString(t, resp, "model_source")
	assertFieldNumber(t, resp, "detection_count")
	assertFieldNumber(t, resp, "latency_ms")
	assertFieldArray(t, resp, "summary")
	assertFieldMap(t, resp, "config")

	if cfg, ok := resp["config"].(map[string]interface{}); ok {
		assertFieldNumber(t, cfg, "conf")
		assertFieldNumber(t, cfg, "iou")
		assertFieldBool(t, cfg, "agnostic_nms")
	}
}

func assertListResponseFields(t *testing.T, resp map[string]interface{}) {
	t.Helper()
	assertFieldArray(t, resp, "items")
	assertFieldNumber(t, resp, "total")
	assertFieldNumber(t, resp, "page_size")
	assertFieldNumber(t, resp, "next_offset")
}

// ---------------------------------------------------------------------------
// Contract tests
// ---------------------------------------------------------------------------

func TestE2E_PredictThenHistory(t *testing.T) {
	det, r := setupE2ERouter(t)

	det.On("Detect", mock.Anything, mock.Anything, mock.Anything).Return(domain.DetectionSet{
		{ClassID: 0, ClassName: "bolt", Confidence: 0.91, Box: domain.Box{X1: 2, Y1: 2, X2: 20, Y2: 20}},
		{ClassID: 1, ClassName: "nut", Confidence: 0.55, Box: domain.Box{X1: 10, Y1: 10, X2: 30, Y2: 30}},
		{ClassID: 0, ClassName: "bolt", Confidence: 0.83, Box: domain.Box{X1: 5, Y1: 5, X2: 25, Y2: 25}},
	}, nil)

	req := multipartRequest(t, "/predict", []formFile{
		{field: "file", name: "tray.png", content: testutil.PNG(t, 40, 40, color.Gray{Y: 200})},
	}, map[string]string{"conf": "0.3"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assertFieldArray(t, resp, "summary")
	assertFieldString(t, resp, "annotated_image")

	summary := resp["summary"].([]interface{})
	require.Len(t, summary, 2)
	first := summary[0].(map[string]interface{})
	assertSummaryFields(t, first)
	assert.Equal(t, "bolt", first["class_name"])
	assert.Equal(t, float64(2), first["quantity"])
	assert.Equal(t, 0.87, first["avg_confidence"])

	dataURL := resp["annotated_image"].(string)
	require.True(t, strings.HasPrefix(dataURL, "data:image/jpeg;base64,"))
	jpegBytes, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, err := codec.Decode(jpegBytes)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	// The prediction shows up in history.
	req, _ = http.NewRequest(http.MethodGet, "/predictions", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assertListResponseFields(t, list)
	items := list["items"].([]interface{})
	require.Len(t, items, 1)
	rec := items[0].(map[string]interface{})
	assertRecordFields(t, rec)
	assert.Equal(t, "tray.png", rec["image_filename"])
	assert.Equal(t, float64(3), rec["detection_count"])
	assert.Equal(t, 0.3, rec["config"].(map[string]interface{})["conf"])

	req, _ = http.NewRequest(http.MethodGet, "/predictions/"+rec["id"].(string), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestE2E_ErrorBodies(t *testing.T) {
	_, r := setupE2ERouter(t)

	cases := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"missing file", multipartRequest(t, "/predict", nil, nil), http.StatusBadRequest},
		{"bad conf", multipartRequest(t, "/predict", []formFile{imageFile(t)}, map[string]string{"conf": "x"}), http.StatusBadRequest},
		{"bad image", multipartRequest(t, "/predict", []formFile{{field: "file", name: "a.png", content: []byte("x")}}, nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tc.req)
			assert.Equal(t, tc.status, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assertFieldString(t, resp, "error")
			assert.Len(t, resp, 1)
		})
	}
}
