package scenario

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/render"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// ObjectsHandler detects large, identifiable objects and colors each unique
// class from the shared palette.
type ObjectsHandler struct{}

const objectsDefaultColor = "#FF9100"

type objectsResponse struct {
	Objects []types.DetectionItem `json:"objects"`
}

var objectsSchema = aiclient.Object(aiclient.Props{
	"objects": aiclient.Array(aiclient.Nested(aiclient.Props{
		"label":       aiclient.Str(),
		"bbox":        aiclient.BBox(),
		"description": aiclient.Str(),
		"confidence":  aiclient.Num(),
	})),
})

func (h *ObjectsHandler) prompt(threshold float64) string {
	pct := thresholdPct(threshold)
	return fmt.Sprintf(`Analyze the image and identify all large, clearly recognizable objects.

Only include objects you can identify with at least %d%% confidence.
Skip small, secondary, or background elements.

For each object provide:
- label: short object class name in English (e.g. "car", "tree", "bicycle", "dog")
- bbox: [y_min, x_min, y_max, x_max] integers 0-1000
- description: one sentence describing the object
- confidence: detection confidence as float 0.0 to 1.0

Return an empty objects array if nothing qualifies.`, pct)
}

func (h *ObjectsHandler) Process(ctx context.Context, ai aiclient.VisionClient, job Job, cfg Config) (*Result, error) {
	prompt := h.prompt(cfg.ConfidenceThreshold)

	var resp objectsResponse
	model, err := ai.Invoke(ctx, job.ImagePath, prompt, objectsSchema, &resp)
	if err != nil {
		return nil, err
	}

	colors := render.BuildColorMap(resp.Objects, render.Palette)
	annotatedPath, err := annotate(job, resp.Objects, colors, objectsDefaultColor, model)
	if err != nil {
		return nil, err
	}

	// Unique classes with counts, in first-seen order.
	counts := make(map[string]int)
	var order []string
	for _, item := range resp.Objects {
		label := item.Label
		if label == "" {
			label = "unknown"
		}
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		counts[label]++
	}

	var table []types.ResultRow
	for _, label := range order {
		table = append(table, types.Row(capitalize(label), strconv.Itoa(counts[label])))
	}
	table = append(table, types.Row("Total objects", strconv.Itoa(len(resp.Objects))))

	return &Result{
		AnnotatedPath: annotatedPath,
		Table:         table,
		Raw:           resp,
		Prompt:        prompt,
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
