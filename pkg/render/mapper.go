package render

import (
	"image"
	"math"
)

// normalizedMax is the upper bound of the model's box coordinate space.
const normalizedMax = 1000

// MapToPixels converts a [y_min, x_min, y_max, x_max] box in the 0-1000
// normalized space into a pixel rectangle for an image of the given size.
// Each component is clamped to [0,1000] before linear scaling, so
// out-of-range model output never produces out-of-canvas coordinates.
// The second return is false when the box does not have exactly four
// components; such boxes are skipped by callers.
func MapToPixels(bbox []int, width, height int) (image.Rectangle, bool) {
	if len(bbox) != 4 {
		return image.Rectangle{}, false
	}
	yMin := clampNorm(bbox[0])
	xMin := clampNorm(bbox[1])
	yMax := clampNorm(bbox[2])
	xMax := clampNorm(bbox[3])

	return image.Rect(
		scale(xMin, width),
		scale(yMin, height),
		scale(xMax, width),
		scale(yMax, height),
	), true
}

func clampNorm(v int) int {
	if v < 0 {
		return 0
	}
	if v > normalizedMax {
		return normalizedMax
	}
	return v
}

func scale(norm, dim int) int {
	return int(math.Round(float64(norm) / normalizedMax * float64(dim)))
}
