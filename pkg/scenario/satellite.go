package scenario

import (
	"context"
	"fmt"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/render"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// SatelliteHandler analyzes aerial or satellite imagery: landscape and area
// classification plus notable objects with bounding boxes.
type SatelliteHandler struct{}

const satelliteDefaultColor = "#FF9100"

type satelliteObject struct {
	Label       string  `json:"label"`
	BBox        []int   `json:"bbox"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Count       int     `json:"count"`
}

type areaAnalysis struct {
	LandscapeType  string   `json:"landscape_type"`
	AreaType       string   `json:"area_type"`
	Classification string   `json:"classification"`
	CountryRegion  string   `json:"country_region"`
	Description    string   `json:"description"`
	NotableObjects []string `json:"notable_objects"`
}

type satelliteResponse struct {
	Objects  []satelliteObject `json:"objects"`
	Analysis areaAnalysis      `json:"analysis"`
}

var satelliteSchema = aiclient.Object(aiclient.Props{
	"objects": aiclient.Array(aiclient.Nested(aiclient.Props{
		"label":       aiclient.Str(),
		"bbox":        aiclient.BBox(),
		"description": aiclient.Str(),
		"confidence":  aiclient.Num(),
		"count":       aiclient.Int(),
	})),
	"analysis": aiclient.Nested(aiclient.Props{
		"landscape_type":  aiclient.Str(),
		"area_type":       aiclient.Str(),
		"classification":  aiclient.Str(),
		"country_region":  aiclient.Str(),
		"description":     aiclient.Str(),
		"notable_objects": aiclient.Array(aiclient.Str()),
	}),
})

func (h *SatelliteHandler) prompt(threshold float64) string {
	pct := thresholdPct(threshold)
	return fmt.Sprintf(`This is a satellite or aerial photograph. Analyze it thoroughly.

Only include detections with confidence >= %d%%.
Return at most 15 objects — prioritize the most significant ones.

Return a JSON object with:

objects — bounding boxes around notable objects or zones (max 15):
  - label: concise object name (e.g. "aircraft", "runway", "ship", "fuel tank", "radar dish", "building cluster", "vehicle", "crater", "bridge", "agricultural field", "forest patch")
  - bbox: [y_min, x_min, y_max, x_max] integers 0-1000
  - description: very short phrase, max 8 words
  - confidence: float 0.0 to 1.0
  - count: number of individual items of this type inside this bbox (use 1 for a single object, use higher numbers for groups like "8 aircraft", "~20 vehicles")

analysis — overall image assessment:
  - landscape_type: dominant terrain type (e.g. "urban", "coastal", "arid", "forested", "mountainous", "agricultural", "arctic")
  - area_type: primary function or facility type (e.g. "international airport", "military airbase", "commercial seaport", "oil refinery", "residential district", "railway depot", "open countryside")
  - classification: dominant use category — one of: "civilian", "military", "industrial", "residential", "nature", "agricultural", "mixed"
  - country_region: likely country or geographic region based on visible clues (empty string if cannot be determined)
  - description: 2-3 sentence factual overview of what the image shows
  - notable_objects: list of key specific findings (e.g. "Approximately 14 combat aircraft visible on apron", "Large fuel storage farm, ~6 tanks")

Return empty objects list and empty strings if the image is not a satellite/aerial view.`, pct)
}

func (h *SatelliteHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	prompt := h.prompt(cfg.ConfidenceThreshold)

	var resp satelliteResponse
	model, err := ai.Invoke(ctx, job.ImagePath, prompt, satelliteSchema, &resp)
	if err != nil {
		return nil, err
	}

	// Enrich labels with group counts for drawing ("aircraft ×8").
	items := make([]types.DetectionItem, 0, len(resp.Objects))
	for _, obj := range resp.Objects {
		label := obj.Label
		if obj.Count > 1 {
			label = fmt.Sprintf("%s ×%d", label, obj.Count)
		}
		items = append(items, types.DetectionItem{
			Label:       label,
			BBox:        obj.BBox,
			Confidence:  obj.Confidence,
			Description: obj.Description,
		})
	}

	colors := render.BuildColorMap(items, render.Palette)
	annotatedPath, err := annotate(job, items, colors, satelliteDefaultColor, model)
	if err != nil {
		return nil, err
	}

	a := resp.Analysis
	table := []types.ResultRow{
		types.Row("Landscape", orDash(a.LandscapeType)),
		types.Row("Area type", orDash(a.AreaType)),
		types.Row("Classification", orDash(a.Classification)),
		types.Row("Region", orDash(a.CountryRegion)),
		types.Row("Overview", orDash(a.Description)),
	}
	if len(a.NotableObjects) > 0 {
		table = append(table, types.Separator("Key findings"))
		for _, finding := range a.NotableObjects {
			table = append(table, types.Row("Finding", finding))
		}
	}

	return &Result{
		AnnotatedPath: annotatedPath,
		Table:         table,
		Raw:           resp,
		Prompt:        prompt,
	}, nil
}
