// Package scenario defines the per-use-case handlers that translate vision
// model responses into drawable items and result tables, and the static
// registry that maps scenario keys to them.
package scenario

import (
	"context"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// DefaultKey is the scenario preselected on the upload page.
const DefaultKey = "vehicles"

// Job identifies one upload being processed. All paths live inside Dir,
// a per-request temporary directory.
type Job struct {
	ImagePath string
	Dir       string
	Stem      string
	Ext       string
}

// Result is what a handler hands back to the pipeline. AnnotatedPath is
// empty when the scenario produced no image; Raw holds the decoded model
// response for diagnostics.
type Result struct {
	AnnotatedPath string
	Table         []types.ResultRow
	Raw           any
	Prompt        string
}

// Handler implements one scenario: prompt construction, the AI call, and
// translation of the response into detection items and table rows. AI
// failures come back as the returned error; handlers never panic past their
// boundary.
type Handler interface {
	Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error)
}

// Config is the static, read-only description of one scenario.
type Config struct {
	Key                 string
	Name                string
	Description         string
	Handler             Handler
	ConfidenceThreshold float64
	ShowAnnotatedImage  bool
	ShowResultTable     bool
	ConstantText        string
	SendImageToAI       bool
	Preprocessors       []string
}

// Registry is the immutable scenario table, built once at startup.
type Registry struct {
	configs map[string]Config
	order   []string
}

// NewRegistry builds the full scenario table. Display order follows
// insertion order.
func NewRegistry() *Registry {
	r := &Registry{configs: make(map[string]Config)}

	add := func(cfg Config) {
		r.configs[cfg.Key] = cfg
		r.order = append(r.order, cfg.Key)
	}

	defaults := func(cfg Config) Config {
		cfg.ConfidenceThreshold = 0.70
		cfg.ShowAnnotatedImage = true
		cfg.ShowResultTable = true
		cfg.SendImageToAI = true
		cfg.Preprocessors = []string{"resize"}
		return cfg
	}

	add(defaults(Config{
		Key:         "vehicles",
		Name:        "Fridge Recipe",
		Description: "Photo your fridge or table — AI spots the ingredients and suggests a dish with a full recipe.",
		Handler:     &FridgeHandler{},
	}))
	add(defaults(Config{
		Key:         "car",
		Name:        "Car Valuation",
		Description: "Identify the car, read the plate, detect violations, and get an estimated market value in USD.",
		Handler:     &CarHandler{},
	}))
	add(defaults(Config{
		Key:         "objects",
		Name:        "Object Detection",
		Description: "Detect and label all large objects in the image.",
		Handler:     &ObjectsHandler{},
	}))
	add(defaults(Config{
		Key:         "person",
		Name:        "Person Description",
		Description: "Describe the main person: gender, age, hair, eyes, build, and skin tone.",
		Handler:     &PersonHandler{},
	}))
	add(defaults(Config{
		Key:         "instruments",
		Name:        "Instrument Reading",
		Description: "Read values from gauges, meters, speedometers, and dashboards.",
		Handler:     &InstrumentsHandler{},
	}))
	add(defaults(Config{
		Key:         "receipt",
		Name:        "Receipt Reading",
		Description: "Extract category, items, prices, seller, date/time, and total from a receipt.",
		Handler:     &ReceiptHandler{},
	}))
	add(defaults(Config{
		Key:         "satellite",
		Name:        "Satellite Image Analysis",
		Description: "Analyze aerial or satellite imagery: landscape, area type, classification, and notable objects.",
		Handler:     &SatelliteHandler{},
	}))
	add(defaults(Config{
		Key:         "medicine",
		Name:        "Medicine Check",
		Description: "Photo a medicine pack — get the drug name, purpose, dosage, warnings, and price estimate.",
		Handler:     &MedicineHandler{},
	}))
	add(Config{
		Key:         "ruler",
		Name:        "Measure Length (cm)",
		Description: "Upload a photo — AI will measure the object length in centimetres.",
		Handler:     &ConstantHandler{},
		ConstantText: "😄 This is a joke — I was just curious how many people would try to measure " +
			"something with AI. Please use a ruler for actual measurements!",
	})

	return r
}

// Get returns the configuration for a scenario key.
func (r *Registry) Get(key string) (Config, bool) {
	cfg, ok := r.configs[key]
	return cfg, ok
}

// Keys returns scenario keys in display order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
