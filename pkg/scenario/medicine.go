package scenario

import (
	"context"
	"fmt"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// MedicineHandler identifies a medicine from its packaging: name, purpose,
// dosage, warnings, and an estimated price.
type MedicineHandler struct{}

var medicineLabelColors = map[string]string{
	"package": "#9B59B6",
	"label":   "#3498DB",
	"barcode": "#95A5A6",
}

const medicineDefaultColor = "#FF9100"

type medicineInfo struct {
	Name          string `json:"name"`
	GenericName   string `json:"generic_name"`
	Category      string `json:"category"`
	Purpose       string `json:"purpose"`
	Dosage        string `json:"dosage"`
	Instructions  string `json:"instructions"`
	Warnings      string `json:"warnings"`
	PriceEstimate string `json:"price_estimate"`
}

type medicineResponse struct {
	Objects  []types.DetectionItem `json:"objects"`
	Medicine medicineInfo          `json:"medicine"`
}

var medicineSchema = aiclient.Object(aiclient.Props{
	"objects": aiclient.Array(aiclient.Nested(aiclient.Props{
		"label":       aiclient.Str(),
		"bbox":        aiclient.BBox(),
		"description": aiclient.Str(),
		"confidence":  aiclient.Num(),
	})),
	"medicine": aiclient.Nested(aiclient.Props{
		"name":           aiclient.Str(),
		"generic_name":   aiclient.Str(),
		"category":       aiclient.Str(),
		"purpose":        aiclient.Str(),
		"dosage":         aiclient.Str(),
		"instructions":   aiclient.Str(),
		"warnings":       aiclient.Str(),
		"price_estimate": aiclient.Str(),
	}),
})

func (h *MedicineHandler) prompt(threshold float64) string {
	pct := thresholdPct(threshold)
	return fmt.Sprintf(`Analyze this image and identify the medicine or pharmaceutical product shown.

Only proceed if you can identify the product with at least %d%% confidence.

Return a JSON object with:

objects — bounding boxes of key areas:
  - label: "package" (box/blister/bottle), "label" (text area), or "barcode"
  - bbox: [y_min, x_min, y_max, x_max] integers 0-1000
  - description: brief description of the area
  - confidence: float 0.0 to 1.0

medicine — detailed information:
  - name: brand / trade name (e.g. "Nurofen", "Augmentin")
  - generic_name: active ingredient or INN (e.g. "ibuprofen", "amoxicillin + clavulanic acid")
  - category: drug class (e.g. "NSAID painkiller", "antibiotic", "antihypertensive", "antihistamine", "probiotic")
  - purpose: what this medicine is used to treat (2-3 sentences)
  - dosage: standard dosage for an adult (e.g. "400 mg every 6-8 hours, max 1200 mg/day")
  - instructions: how to take it (e.g. "take with food", "do not crush", "complete the full course")
  - warnings: most important warnings / contraindications / side effects (2-3 key points)
  - price_estimate: approximate retail price range (e.g. "$5-$12 USD"); use USD if the country is unknown

Return empty objects list and empty medicine strings if no medicine is visible.`, pct)
}

func (h *MedicineHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	prompt := h.prompt(cfg.ConfidenceThreshold)

	var resp medicineResponse
	model, err := ai.Invoke(ctx, job.ImagePath, prompt, medicineSchema, &resp)
	if err != nil {
		return nil, err
	}

	annotatedPath, err := annotate(job, resp.Objects, medicineLabelColors, medicineDefaultColor, model)
	if err != nil {
		return nil, err
	}

	m := resp.Medicine
	table := []types.ResultRow{
		types.Row("Name", orDash(m.Name)),
		types.Row("Active ingredient", orDash(m.GenericName)),
		types.Row("Category", orDash(m.Category)),
		types.Row("Used for", orDash(m.Purpose)),
		types.Row("Dosage", orDash(m.Dosage)),
		types.Row("Instructions", orDash(m.Instructions)),
		types.Row("Warnings", orDash(m.Warnings)),
		types.Row("Price estimate", orDash(m.PriceEstimate)),
	}

	return &Result{
		AnnotatedPath: annotatedPath,
		Table:         table,
		Raw:           resp,
		Prompt:        prompt,
	}, nil
}
