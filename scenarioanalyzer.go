// Package scenarioanalyzer turns a photo into a structured analysis through a
// pluggable set of scenarios backed by a vision language model.
//
// Each scenario (ingredient spotting, car valuation, receipt reading, and so
// on) owns its own prompt, response schema, and result table. The model
// returns object detections with normalized bounding boxes, which the
// renderer draws back onto the photo with color-coded, confidence-labeled
// overlays.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"os"
//
//		"go.uber.org/zap"
//
//		scenarioanalyzer "github.com/dmvision/scenario-analyzer"
//	)
//
//	func main() {
//		logger, _ := zap.NewDevelopment()
//		defer logger.Sync()
//
//		app, err := scenarioanalyzer.New("http://localhost:11434", "qwen2.5vl:7b", logger)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		f, err := os.Open("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer f.Close()
//
//		outcome, err := app.Analyze(context.Background(), f, "photo.jpg", "car")
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, row := range outcome.Table {
//			log.Printf("%s: %s", row.Field, row.Value)
//		}
//	}
//
// The package consists of four main components:
//
// 1. Scenarios (pkg/scenario): prompt, schema, and table logic per use case
// 2. AI clients (pkg/aiclient): Ollama and llama.cpp vision backends
// 3. Renderer (pkg/render): bounding box overlays and the model badge
// 4. Pipeline (pkg/pipeline): upload staging, preprocessing, orchestration
package scenarioanalyzer

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/pipeline"
	"github.com/dmvision/scenario-analyzer/pkg/scenario"
)

// Version of the scenario analyzer library
const Version = "1.0.0"

// App bundles the scenario registry, the vision backend, and the pipeline
// behind one entry point.
type App struct {
	registry *scenario.Registry
	pipe     *pipeline.Pipeline
}

// New creates an App backed by an Ollama server.
func New(ollamaURL, model string, logger *zap.Logger) (*App, error) {
	ai, err := aiclient.NewOllamaClient(ollamaURL, model)
	if err != nil {
		return nil, err
	}
	return NewWithClient(ai, logger), nil
}

// NewWithClient creates an App with a caller-supplied vision backend.
func NewWithClient(ai aiclient.VisionClient, logger *zap.Logger) *App {
	registry := scenario.NewRegistry()
	return &App{
		registry: registry,
		pipe:     pipeline.New(registry, ai, logger),
	}
}

// Analyze runs one image through the named scenario. An empty scenarioKey
// selects the default scenario.
func (a *App) Analyze(ctx context.Context, image io.Reader, filename, scenarioKey string) (*pipeline.Outcome, error) {
	return a.pipe.Process(ctx, image, filename, scenarioKey)
}

// Scenarios returns the registry for listing or inspection.
func (a *App) Scenarios() *scenario.Registry {
	return a.registry
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
