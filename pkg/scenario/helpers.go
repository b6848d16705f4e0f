package scenario

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dmvision/scenario-analyzer/pkg/imgio"
	"github.com/dmvision/scenario-analyzer/pkg/render"
	"github.com/dmvision/scenario-analyzer/pkg/types"
)

const annotatedSuffix = "_annotated"

// annotate opens the job image, draws detection items and the model badge,
// and writes the result next to the original as <stem>_annotated.<ext>.
func annotate(job Job, items []types.DetectionItem, labelColors map[string]string, defaultColor, model string) (string, error) {
	img, err := imgio.Open(job.ImagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image for annotation: %w", err)
	}
	annotated := render.DrawBoxes(img, items, labelColors, defaultColor)
	annotated = render.DrawModelBadge(annotated, model)

	path := filepath.Join(job.Dir, job.Stem+annotatedSuffix+"."+job.Ext)
	if err := imgio.Save(annotated, path); err != nil {
		return "", fmt.Errorf("failed to save annotated image: %w", err)
	}
	return path, nil
}

// orDash substitutes the dash placeholder for empty display values.
func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// percent renders a 0-1 confidence as a whole-number percentage string.
func percent(v float64) string {
	return strconv.Itoa(int(v*100+0.5)) + "%"
}

// thresholdPct converts a 0-1 threshold to the whole percentage embedded in
// prompts.
func thresholdPct(threshold float64) int {
	return int(threshold*100 + 0.5)
}
