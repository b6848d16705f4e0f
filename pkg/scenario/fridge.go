package scenario

import (
	"context"
	"fmt"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/render"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// FridgeHandler detects food products in the image, suggests one dish, and
// returns a recipe with an ingredient list.
type FridgeHandler struct{}

const fridgeDefaultColor = "#FF9100"

type ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

type fridgeResponse struct {
	Items       []types.DetectionItem `json:"items"`
	DishName    string                `json:"dish_name"`
	CookingTime string                `json:"cooking_time"`
	Recipe      string                `json:"recipe"`
	Ingredients []ingredient          `json:"ingredients"`
}

var fridgeSchema = aiclient.Object(aiclient.Props{
	"items": aiclient.Array(aiclient.Nested(aiclient.Props{
		"label":       aiclient.Str(),
		"bbox":        aiclient.BBox(),
		"description": aiclient.Str(),
		"confidence":  aiclient.Num(),
	})),
	"dish_name":    aiclient.Str(),
	"cooking_time": aiclient.Str(),
	"recipe":       aiclient.Str(),
	"ingredients": aiclient.Array(aiclient.Nested(aiclient.Props{
		"name":     aiclient.Str(),
		"quantity": aiclient.Str(),
	})),
})

func (h *FridgeHandler) prompt(threshold float64) string {
	pct := thresholdPct(threshold)
	return fmt.Sprintf(`Analyze this photo and identify all visible food products, ingredients, and drinks (in the fridge, on the table, or anywhere in the image).

Only include items you can identify with at least %d%% confidence.

Then, based on the detected ingredients, suggest ONE dish that can be cooked from them (you may assume basic pantry staples like salt, oil, and water are available).

Return a JSON object with:

items — list of detected food products with bounding boxes:
  - label: product name (e.g. "tomato", "chicken breast", "milk")
  - bbox: [y_min, x_min, y_max, x_max] integers 0-1000
  - description: brief description (color, quantity visible, condition)
  - confidence: float 0.0 to 1.0

dish_name    — name of the suggested dish (empty string if no food found)
cooking_time — estimated cooking time (e.g. "25 minutes")
recipe       — step-by-step cooking instructions as a single text block
ingredients  — full ingredient list for the dish:
  - name: ingredient name
  - quantity: amount needed (e.g. "2 pcs", "200 g", "1 cup")

Return empty items list and empty strings if no food is visible.`, pct)
}

func (h *FridgeHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	prompt := h.prompt(cfg.ConfidenceThreshold)

	var resp fridgeResponse
	model, err := ai.Invoke(ctx, job.ImagePath, prompt, fridgeSchema, &resp)
	if err != nil {
		return nil, err
	}

	// Each food product gets a unique palette color.
	colors := render.BuildColorMap(resp.Items, render.Palette)
	annotatedPath, err := annotate(job, resp.Items, colors, fridgeDefaultColor, model)
	if err != nil {
		return nil, err
	}

	table := []types.ResultRow{
		types.Row("Suggested dish", orDash(resp.DishName)),
		types.Row("Cooking time", orDash(resp.CookingTime)),
		types.Row("Recipe", orDash(resp.Recipe)),
		types.Separator("Ingredients"),
	}
	for _, ing := range resp.Ingredients {
		table = append(table, types.Row(orDash(ing.Name), orDash(ing.Quantity)))
	}
	if len(resp.Ingredients) == 0 {
		table = append(table, types.Row("Ingredients", "—"))
	}

	return &Result{
		AnnotatedPath: annotatedPath,
		Table:         table,
		Raw:           resp,
		Prompt:        prompt,
	}, nil
}
