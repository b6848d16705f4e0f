package scenario

import (
	"context"
	"fmt"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/render"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// InstrumentsHandler reads values from gauges, meters, speedometers, and
// dashboard displays.
type InstrumentsHandler struct{}

const instrumentsDefaultColor = "#FF9100"

type instrumentItem struct {
	Label      string  `json:"label"`
	BBox       []int   `json:"bbox"`
	Reading    string  `json:"reading"`
	Unit       string  `json:"unit"`
	Confidence float64 `json:"confidence"`
}

type instrumentReading struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

type instrumentsResponse struct {
	Objects  []instrumentItem    `json:"objects"`
	Readings []instrumentReading `json:"readings"`
}

var instrumentsSchema = aiclient.Object(aiclient.Props{
	"objects": aiclient.Array(aiclient.Nested(aiclient.Props{
		"label":      aiclient.Str(),
		"bbox":       aiclient.BBox(),
		"reading":    aiclient.Str(),
		"unit":       aiclient.Str(),
		"confidence": aiclient.Num(),
	})),
	"readings": aiclient.Array(aiclient.Nested(aiclient.Props{
		"parameter": aiclient.Str(),
		"value":     aiclient.Str(),
	})),
})

func (h *InstrumentsHandler) prompt(threshold float64) string {
	pct := thresholdPct(threshold)
	return fmt.Sprintf(`Analyze this image and identify the main instruments, gauges, meters, or dashboard displays.

Only include instruments you can read with at least %d%% confidence.

For each instrument provide:
- label: instrument type (e.g. "speedometer", "odometer", "gas meter", "temperature gauge", "fuel gauge")
- bbox: [y_min, x_min, y_max, x_max] integers 0-1000
- reading: the current value shown on the instrument as a string
- unit: unit of measurement if known (e.g. "km/h", "m3", "C"), else empty string
- confidence: your reading confidence as float 0.0 to 1.0

Also provide a summary readings list:
- parameter: descriptive name (e.g. "Speed", "Distance", "Gas volume", "Temperature"). If the parameter type is unclear but the value is visible, use "Value".
- value: value with unit (e.g. "120 km/h", "120 000 km", "130 m3")

Return empty lists if no instruments are visible.`, pct)
}

func (h *InstrumentsHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	prompt := h.prompt(cfg.ConfidenceThreshold)

	var resp instrumentsResponse
	model, err := ai.Invoke(ctx, job.ImagePath, prompt, instrumentsSchema, &resp)
	if err != nil {
		return nil, err
	}

	items := make([]types.DetectionItem, 0, len(resp.Objects))
	for _, obj := range resp.Objects {
		items = append(items, types.DetectionItem{
			Label:       obj.Label,
			BBox:        obj.BBox,
			Confidence:  obj.Confidence,
			Description: obj.Reading + " " + obj.Unit,
		})
	}

	colors := render.BuildColorMap(items, render.Palette)
	annotatedPath, err := annotate(job, items, colors, instrumentsDefaultColor, model)
	if err != nil {
		return nil, err
	}

	var table []types.ResultRow
	for _, r := range resp.Readings {
		table = append(table, types.Row(orDash(r.Parameter), orDash(r.Value)))
	}
	if len(table) == 0 {
		table = []types.ResultRow{types.Row("Result", "No instruments detected")}
	}

	return &Result{
		AnnotatedPath: annotatedPath,
		Table:         table,
		Raw:           resp,
		Prompt:        prompt,
	}, nil
}
