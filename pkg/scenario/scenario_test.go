package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/imgio"
)

// fakeVision replays a canned JSON response instead of calling a backend.
type fakeVision struct {
	raw   string
	model string
	err   error

	calls  int
	prompt string
	schema json.RawMessage
}

func (f *fakeVision) Invoke(ctx context.Context, imagePath, prompt string, schema json.RawMessage, out any) (string, error) {
	f.calls++
	f.prompt = prompt
	f.schema = schema
	if f.err != nil {
		return "", f.err
	}
	if err := json.Unmarshal([]byte(f.raw), out); err != nil {
		return "", err
	}
	return f.model, nil
}

// newTestJob writes a small white image into a fresh temp dir and returns the
// job pointing at it.
func newTestJob(t *testing.T) Job {
	t.Helper()
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 320, 240))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.SetNRGBA(x, y, white)
		}
	}

	path := filepath.Join(dir, "upload.jpg")
	if err := imgio.Save(img, path); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
	return Job{ImagePath: path, Dir: dir, Stem: "upload", Ext: "jpg"}
}

func testConfig(key string, t *testing.T) Config {
	t.Helper()
	cfg, ok := NewRegistry().Get(key)
	if !ok {
		t.Fatalf("Scenario %q not registered", key)
	}
	return cfg
}

func rowValue(t *testing.T, result *Result, field string) string {
	t.Helper()
	for _, row := range result.Table {
		if row.Field == field {
			return row.Value
		}
	}
	t.Fatalf("Row %q not found in table %v", field, result.Table)
	return ""
}

func TestRegistryContents(t *testing.T) {
	r := NewRegistry()

	wantOrder := []string{"vehicles", "car", "objects", "person", "instruments", "receipt", "satellite", "medicine", "ruler"}
	keys := r.Keys()
	if len(keys) != len(wantOrder) {
		t.Fatalf("Expected %d scenarios, got %d", len(wantOrder), len(keys))
	}
	for i, key := range wantOrder {
		if keys[i] != key {
			t.Errorf("Expected key %q at position %d, got %q", key, i, keys[i])
		}
	}

	if _, ok := r.Get(DefaultKey); !ok {
		t.Errorf("Default scenario %q not registered", DefaultKey)
	}

	car, _ := r.Get("car")
	if car.ConfidenceThreshold != 0.70 {
		t.Errorf("Expected default threshold 0.70, got %f", car.ConfidenceThreshold)
	}
	if !car.ShowAnnotatedImage || !car.ShowResultTable || !car.SendImageToAI {
		t.Error("Expected AI scenario to show image and table and send the image")
	}
	if len(car.Preprocessors) != 1 || car.Preprocessors[0] != "resize" {
		t.Errorf("Expected resize preprocessor, got %v", car.Preprocessors)
	}

	ruler, _ := r.Get("ruler")
	if ruler.SendImageToAI {
		t.Error("Expected ruler scenario to skip the AI call")
	}
	if ruler.ShowAnnotatedImage || ruler.ShowResultTable {
		t.Error("Expected ruler scenario to hide image and table")
	}
	if ruler.ConstantText == "" {
		t.Error("Expected ruler scenario to carry constant text")
	}
}

func TestCarHandlerSuccess(t *testing.T) {
	job := newTestJob(t)
	cfg := testConfig("car", t)
	ai := &fakeVision{
		model: "test-model",
		raw: `{
			"objects": [
				{"label": "vehicle", "bbox": [100, 100, 900, 900], "confidence": 0.95, "description": "sedan"},
				{"label": "license_plate", "bbox": [700, 400, 800, 600], "confidence": 0.9, "description": "AB 123"}
			],
			"make": "Toyota", "model": "Corolla", "color": "silver",
			"plate_text": "AB 123", "country": "", "confidence": 0.92,
			"violations": [{"type": "wrong parking", "probability": 0.8}],
			"value_usd_from": 12000, "value_usd_to": 15000, "value_note": "2019 model year assumed"
		}`,
	}

	result, err := cfg.Handler.Process(context.Background(), ai, job, cfg)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	wantPath := filepath.Join(job.Dir, "upload_annotated.jpg")
	if result.AnnotatedPath != wantPath {
		t.Errorf("Expected annotated path %q, got %q", wantPath, result.AnnotatedPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("Annotated image not written: %v", err)
	}

	if got := rowValue(t, result, "Make"); got != "Toyota" {
		t.Errorf("Expected Make Toyota, got %q", got)
	}
	if got := rowValue(t, result, "Country"); got != "—" {
		t.Errorf("Expected dash for empty country, got %q", got)
	}
	if got := rowValue(t, result, "Confidence"); got != "92%" {
		t.Errorf("Expected confidence 92%%, got %q", got)
	}
	if got := rowValue(t, result, "Est. value"); got != "$12,000 – $15,000" {
		t.Errorf("Expected formatted value range, got %q", got)
	}
	if got := rowValue(t, result, "Possible violation"); got != "wrong parking (80%)" {
		t.Errorf("Expected violation row, got %q", got)
	}

	if ai.calls != 1 {
		t.Errorf("Expected exactly one AI call, got %d", ai.calls)
	}
	if len(ai.schema) == 0 {
		t.Error("Expected a response schema passed to the AI client")
	}
}

func TestHandlerAIFailure(t *testing.T) {
	job := newTestJob(t)
	cfg := testConfig("objects", t)
	ai := &fakeVision{err: &aiclient.UnavailableError{Reason: "backend down"}}

	result, err := cfg.Handler.Process(context.Background(), ai, job, cfg)
	if err == nil {
		t.Fatal("Expected error from failed AI call")
	}
	if result != nil {
		t.Errorf("Expected nil result on failure, got %+v", result)
	}

	var unavail *aiclient.UnavailableError
	if !errors.As(err, &unavail) {
		t.Errorf("Expected UnavailableError passed through, got %T", err)
	}

	if _, err := os.Stat(filepath.Join(job.Dir, "upload_annotated.jpg")); !os.IsNotExist(err) {
		t.Error("Expected no annotated image on failure")
	}
}

func TestConstantHandlerSkipsAI(t *testing.T) {
	job := newTestJob(t)
	cfg := testConfig("ruler", t)
	ai := &fakeVision{model: "test-model", raw: "{}"}

	result, err := cfg.Handler.Process(context.Background(), ai, job, cfg)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if ai.calls != 0 {
		t.Errorf("Expected no AI calls, got %d", ai.calls)
	}
	if result.AnnotatedPath != "" || len(result.Table) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestFridgeHandlerTable(t *testing.T) {
	job := newTestJob(t)
	cfg := testConfig("vehicles", t)
	ai := &fakeVision{
		model: "test-model",
		raw: `{
			"items": [
				{"label": "tomato", "bbox": [100, 100, 300, 300], "confidence": 0.9},
				{"label": "cheese", "bbox": [400, 400, 600, 600], "confidence": 0.85}
			],
			"dish_name": "Caprese salad", "cooking_time": "10 minutes",
			"recipe": "Slice and layer.",
			"ingredients": [{"name": "tomato", "quantity": "2 pcs"}, {"name": "cheese", "quantity": "150 g"}]
		}`,
	}

	result, err := cfg.Handler.Process(context.Background(), ai, job, cfg)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := rowValue(t, result, "Suggested dish"); got != "Caprese salad" {
		t.Errorf("Expected dish row, got %q", got)
	}
	if got := rowValue(t, result, "tomato"); got != "2 pcs" {
		t.Errorf("Expected ingredient row, got %q", got)
	}
}

func TestPercentRounding(t *testing.T) {
	if got := percent(0.876); got != "88%" {
		t.Errorf("Expected 88%%, got %q", got)
	}
	if got := percent(0); got != "0%" {
		t.Errorf("Expected 0%%, got %q", got)
	}
}

func TestFormatValueRange(t *testing.T) {
	if got := formatValueRange(12000, 15000); got != "$12,000 – $15,000" {
		t.Errorf("Expected range, got %q", got)
	}
	if got := formatValueRange(0, 8500); got != "~$8,500" {
		t.Errorf("Expected single-bound estimate, got %q", got)
	}
	if got := formatValueRange(0, 0); got != "—" {
		t.Errorf("Expected dash, got %q", got)
	}
}
