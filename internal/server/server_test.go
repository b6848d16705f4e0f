package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/pipeline"
	"github.com/dmvision/scenario-analyzer/pkg/scenario"
)

type fakeVision struct {
	raw   string
	model string
	err   error
}

func (f *fakeVision) Invoke(ctx context.Context, imagePath, prompt string, schema json.RawMessage, out any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := json.Unmarshal([]byte(f.raw), out); err != nil {
		return "", err
	}
	return f.model, nil
}

func newTestServer(ai aiclient.VisionClient) *Server {
	gin.SetMode(gin.TestMode)
	registry := scenario.NewRegistry()
	logger := zap.NewNop()
	pipe := pipeline.New(registry, ai, logger)
	return New(registry, pipe, logger, 16*1024*1024)
}

func uploadRequest(t *testing.T, filename, scenarioKey string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := fw.Write(body); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if scenarioKey != "" {
		if err := w.WriteField("scenario", scenarioKey); err != nil {
			t.Fatalf("Failed to write scenario field: %v", err)
		}
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 180, G: 180, B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&fakeVision{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestScenariosEndpoint(t *testing.T) {
	srv := newTestServer(&fakeVision{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scenarios", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Scenarios []scenarioInfo `json:"scenarios"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Scenarios) != 9 {
		t.Errorf("Expected 9 scenarios, got %d", len(resp.Scenarios))
	}
	if resp.Scenarios[0].Key != scenario.DefaultKey || !resp.Scenarios[0].Default {
		t.Errorf("Expected default scenario first, got %+v", resp.Scenarios[0])
	}
}

func TestUploadSuccess(t *testing.T) {
	ai := &fakeVision{
		model: "test-model",
		raw: `{"objects": [
			{"label": "cup", "bbox": [100, 100, 500, 500], "confidence": 0.9}
		]}`,
	}
	srv := newTestServer(ai)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "photo.png", "objects", testPNG(t)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Scenario != "objects" {
		t.Errorf("Expected scenario objects, got %q", resp.Scenario)
	}
	if resp.Image == "" || resp.ImageMIME != "image/png" {
		t.Errorf("Expected base64 PNG in response, got mime %q", resp.ImageMIME)
	}
	if len(resp.Table) == 0 {
		t.Error("Expected a result table")
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv := newTestServer(&fakeVision{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestUploadBadExtension(t *testing.T) {
	srv := newTestServer(&fakeVision{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "document.pdf", "objects", testPNG(t)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad extension, got %d", rec.Code)
	}
}

func TestUploadBackendUnavailable(t *testing.T) {
	ai := &fakeVision{err: &aiclient.UnavailableError{Reason: "model overloaded, try later"}}
	srv := newTestServer(ai)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "photo.png", "objects", testPNG(t)))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["error"] != "model overloaded, try later" {
		t.Errorf("Expected backend reason surfaced verbatim, got %q", resp["error"])
	}
}

func TestUploadConstantScenario(t *testing.T) {
	srv := newTestServer(&fakeVision{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, uploadRequest(t, "photo.jpg", "ruler", testPNG(t)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.ConstantText == "" {
		t.Error("Expected constant text in response")
	}
	if resp.Image != "" {
		t.Error("Expected no image for the constant scenario")
	}
}
