package scenario

import (
	"context"
	"fmt"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// PersonHandler locates the main person and describes their visible
// characteristics.
type PersonHandler struct{}

var personLabelColors = map[string]string{"person": "#00C853"}

const personDefaultColor = "#FF9100"

type personBox struct {
	Label      string  `json:"label"`
	BBox       []int   `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

type personAttributes struct {
	Gender         string `json:"gender"`
	AgeEstimate    string `json:"age_estimate"`
	HairColor      string `json:"hair_color"`
	EyeColor       string `json:"eye_color"`
	HeightEstimate string `json:"height_estimate"`
	WeightEstimate string `json:"weight_estimate"`
	SkinTone       string `json:"skin_tone"`
}

type personResponse struct {
	Person     personBox        `json:"person"`
	Attributes personAttributes `json:"attributes"`
}

var personSchema = aiclient.Object(aiclient.Props{
	"person": aiclient.Nested(aiclient.Props{
		"label":      aiclient.Str(),
		"bbox":       aiclient.BBox(),
		"confidence": aiclient.Num(),
	}),
	"attributes": aiclient.Nested(aiclient.Props{
		"gender":          aiclient.Str(),
		"age_estimate":    aiclient.Str(),
		"hair_color":      aiclient.Str(),
		"eye_color":       aiclient.Str(),
		"height_estimate": aiclient.Str(),
		"weight_estimate": aiclient.Str(),
		"skin_tone":       aiclient.Str(),
	}),
})

func (h *PersonHandler) prompt(threshold float64) string {
	pct := thresholdPct(threshold)
	return fmt.Sprintf(`Find the MAIN person in the image and describe their visible characteristics.

Only proceed if you can identify the person with at least %d%% confidence.

Return a JSON object with:

person:
  - label: "person"
  - bbox: [y_min, x_min, y_max, x_max] integers 0-1000
  - confidence: float 0.0 to 1.0

attributes:
  - gender: "male", "female", or "unknown"
  - age_estimate: estimated age range (e.g. "25-35 years old")
  - hair_color: visible hair color or "not visible"
  - eye_color: visible eye color or "not visible"
  - height_estimate: approximate height description (e.g. "average build, ~175 cm")
  - weight_estimate: approximate build (e.g. "medium build, ~75 kg")
  - skin_tone: visible skin tone

Return empty strings and an empty bbox if no person is clearly visible.`, pct)
}

func (h *PersonHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	prompt := h.prompt(cfg.ConfidenceThreshold)

	var resp personResponse
	model, err := ai.Invoke(ctx, job.ImagePath, prompt, personSchema, &resp)
	if err != nil {
		return nil, err
	}

	// Only synthesize a drawable item when the model returned a usable box.
	var items []types.DetectionItem
	if len(resp.Person.BBox) == 4 {
		items = []types.DetectionItem{{
			Label:       "person",
			BBox:        resp.Person.BBox,
			Confidence:  resp.Person.Confidence,
			Description: "Main person",
		}}
	}

	annotatedPath, err := annotate(job, items, personLabelColors, personDefaultColor, model)
	if err != nil {
		return nil, err
	}

	a := resp.Attributes
	table := []types.ResultRow{
		types.Row("Gender", orDash(a.Gender)),
		types.Row("Age", orDash(a.AgeEstimate)),
		types.Row("Hair", orDash(a.HairColor)),
		types.Row("Eyes", orDash(a.EyeColor)),
		types.Row("Height", orDash(a.HeightEstimate)),
		types.Row("Build", orDash(a.WeightEstimate)),
		types.Row("Skin tone", orDash(a.SkinTone)),
	}

	return &Result{
		AnnotatedPath: annotatedPath,
		Table:         table,
		Raw:           resp,
		Prompt:        prompt,
	}, nil
}
