package scenario

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// CarHandler identifies the main vehicle, reads the plate, flags possible
// violations, and estimates the car's market value in USD.
type CarHandler struct{}

var carLabelColors = map[string]string{
	"vehicle":       "#2979FF",
	"license_plate": "#FF9100",
}

const carDefaultColor = "#999999"

type carViolation struct {
	Type        string  `json:"type"`
	Probability float64 `json:"probability"`
}

type carResponse struct {
	Objects      []types.DetectionItem `json:"objects"`
	Make         string                `json:"make"`
	Model        string                `json:"model"`
	Color        string                `json:"color"`
	PlateText    string                `json:"plate_text"`
	Country      string                `json:"country"`
	Confidence   float64               `json:"confidence"`
	Violations   []carViolation        `json:"violations"`
	ValueUSDFrom int                   `json:"value_usd_from"`
	ValueUSDTo   int                   `json:"value_usd_to"`
	ValueNote    string                `json:"value_note"`
}

var carSchema = aiclient.Object(aiclient.Props{
	"objects": aiclient.Array(aiclient.Nested(aiclient.Props{
		"label":       aiclient.Str(),
		"bbox":        aiclient.BBox(),
		"description": aiclient.Str(),
		"confidence":  aiclient.Num(),
	})),
	"make":       aiclient.Str(),
	"model":      aiclient.Str(),
	"color":      aiclient.Str(),
	"plate_text": aiclient.Str(),
	"country":    aiclient.Str(),
	"confidence": aiclient.Num(),
	"violations": aiclient.Array(aiclient.Nested(aiclient.Props{
		"type":        aiclient.Str(),
		"probability": aiclient.Num(),
	})),
	"value_usd_from": aiclient.Int(),
	"value_usd_to":   aiclient.Int(),
	"value_note":     aiclient.Str(),
})

func (h *CarHandler) prompt(threshold float64) string {
	pct := thresholdPct(threshold)
	return fmt.Sprintf(`Analyze this image and find the MAIN vehicle (car, truck, or motorcycle).

Return a JSON object with:

objects — list of items to annotate:
  - label: exactly "vehicle" or "license_plate"
  - bbox: [y_min, x_min, y_max, x_max] integers 0-1000
  - description: plate text or brief vehicle description
  - confidence: float 0.0 to 1.0

make        — vehicle manufacturer brand (empty string if unknown)
model       — vehicle model name (empty string if unknown)
color       — main body color (empty string if unknown)
plate_text  — license plate number (empty string if not readable)
country     — country/region inferred from plate format (empty string if unknown)
confidence  — overall detection confidence float 0.0 to 1.0

violations — list of possible traffic violations visible in the image:
  - type: short description (e.g. "wrong parking", "blocking fire lane", "no parking zone", "double parking")
  - probability: float 0.0 to 1.0 (only include if probability >= %d%%)

value_usd_from — estimated lower bound of current market value in USD (integer, 0 if unknown)
value_usd_to   — estimated upper bound of current market value in USD (integer, 0 if unknown)
value_note     — one sentence explaining the estimate (model year, trim level, mileage assumption, market region, etc.)

Return empty lists and empty strings if nothing is found.`, pct)
}

func (h *CarHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	prompt := h.prompt(cfg.ConfidenceThreshold)

	var resp carResponse
	model, err := ai.Invoke(ctx, job.ImagePath, prompt, carSchema, &resp)
	if err != nil {
		return nil, err
	}

	annotatedPath, err := annotate(job, resp.Objects, carLabelColors, carDefaultColor, model)
	if err != nil {
		return nil, err
	}

	table := []types.ResultRow{
		types.Row("Make", orDash(resp.Make)),
		types.Row("Model", orDash(resp.Model)),
		types.Row("Color", orDash(resp.Color)),
		types.Row("Plate", orDash(resp.PlateText)),
		types.Row("Country", orDash(resp.Country)),
		types.Row("Confidence", percent(resp.Confidence)),
		types.Row("Est. value", formatValueRange(resp.ValueUSDFrom, resp.ValueUSDTo)),
	}
	if resp.ValueNote != "" {
		table = append(table, types.Row("Value note", resp.ValueNote))
	}
	for _, v := range resp.Violations {
		table = append(table, types.Row(
			"Possible violation",
			fmt.Sprintf("%s (%s)", orDash(v.Type), percent(v.Probability)),
		))
	}

	return &Result{
		AnnotatedPath: annotatedPath,
		Table:         table,
		Raw:           resp,
		Prompt:        prompt,
	}, nil
}

var usdPrinter = message.NewPrinter(language.English)

// formatValueRange renders "$12,000 – $15,000", "~$12,000" when only one
// bound is known, or a dash when both are missing.
func formatValueRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return usdPrinter.Sprintf("$%d – $%d", from, to)
	case from > 0 || to > 0:
		if to > from {
			from = to
		}
		return usdPrinter.Sprintf("~$%d", from)
	default:
		return "—"
	}
}
