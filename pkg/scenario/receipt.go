package scenario

import (
	"context"
	"fmt"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// ReceiptHandler extracts category, line items, seller, date/time, and the
// total from a receipt photo.
type ReceiptHandler struct{}

var receiptLabelColors = map[string]string{
	"header": "#45B7D1",
	"item":   "#4ECDC4",
	"total":  "#FF6B6B",
}

const receiptDefaultColor = "#FF9100"

type lineItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type receiptResponse struct {
	Objects  []types.DetectionItem `json:"objects"`
	Category string                `json:"category"`
	Items    []lineItem            `json:"items"`
	Seller   string                `json:"seller"`
	Date     string                `json:"date"`
	Time     string                `json:"time"`
	Total    string                `json:"total"`
}

var receiptSchema = aiclient.Object(aiclient.Props{
	"objects": aiclient.Array(aiclient.Nested(aiclient.Props{
		"label":       aiclient.Str(),
		"bbox":        aiclient.BBox(),
		"description": aiclient.Str(),
		"confidence":  aiclient.Num(),
	})),
	"category": aiclient.Str(),
	"items": aiclient.Array(aiclient.Nested(aiclient.Props{
		"name":  aiclient.Str(),
		"price": aiclient.Str(),
	})),
	"seller": aiclient.Str(),
	"date":   aiclient.Str(),
	"time":   aiclient.Str(),
	"total":  aiclient.Str(),
})

func (h *ReceiptHandler) prompt(threshold float64) string {
	pct := thresholdPct(threshold)
	return fmt.Sprintf(`Read the receipt in this image and extract its contents.

Only include data you can read with at least %d%% confidence.

Return a JSON object with:

objects — bounding boxes of key receipt sections:
  - label: "header" (store name/logo), "item" (product line), or "total"
  - bbox: [y_min, x_min, y_max, x_max] integers 0-1000
  - description: what is shown in this area
  - confidence: float 0.0 to 1.0

category — receipt category, one of: "groceries", "fuel", "restaurant", "pharmacy", "electronics", "clothing", "transport", "utilities", "entertainment", "other" (empty string if not a receipt)

items — list of purchased products/services:
  - name: product or service name
  - price: price as string (e.g. "12.99", "1 500")

seller — store or business name (empty string if not visible)
date   — purchase date (empty string if not visible)
time   — purchase time (empty string if not visible)
total  — total amount as string (empty string if not visible)

Return empty lists and empty strings if the receipt is not readable.`, pct)
}

func (h *ReceiptHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	prompt := h.prompt(cfg.ConfidenceThreshold)

	var resp receiptResponse
	model, err := ai.Invoke(ctx, job.ImagePath, prompt, receiptSchema, &resp)
	if err != nil {
		return nil, err
	}

	annotatedPath, err := annotate(job, resp.Objects, receiptLabelColors, receiptDefaultColor, model)
	if err != nil {
		return nil, err
	}

	table := []types.ResultRow{
		types.Row("Category", capitalize(orDash(resp.Category))),
		types.Separator("Items"),
	}
	for _, it := range resp.Items {
		table = append(table, types.Row(orDash(it.Name), orDash(it.Price)))
	}
	table = append(table,
		types.Separator("Summary"),
		types.Row("Seller", orDash(resp.Seller)),
		types.Row("Date", orDash(resp.Date)),
		types.Row("Time", orDash(resp.Time)),
		types.Row("Total", orDash(resp.Total)),
	)

	return &Result{
		AnnotatedPath: annotatedPath,
		Table:         table,
		Raw:           resp,
		Prompt:        prompt,
	}, nil
}
