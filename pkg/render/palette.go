package render

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// Palette is the fixed 10-entry color cycle used by scenarios with an
// open-ended label set. Assignment order is first appearance, cycling with
// modulo once exhausted.
var Palette = []string{
	"#FF6B6B", // coral red
	"#4ECDC4", // teal
	"#45B7D1", // sky blue
	"#96CEB4", // sage green
	"#F7DC6F", // gold
	"#DDA0DD", // plum
	"#F0B27A", // peach
	"#98D8C8", // mint
	"#BB8FCE", // lavender
	"#F1948A", // salmon
}

// BuildColorMap assigns palette colors to lowercased labels in order of first
// appearance among items. Given the same item order the output is identical
// every time; labels never seen receive no entry.
func BuildColorMap(items []types.DetectionItem, palette []string) map[string]string {
	if len(palette) == 0 {
		palette = Palette
	}
	colors := make(map[string]string)
	idx := 0
	for _, item := range items {
		label := strings.ToLower(item.Label)
		if label == "" {
			label = "unknown"
		}
		if _, ok := colors[label]; !ok {
			colors[label] = palette[idx%len(palette)]
			idx++
		}
	}
	return colors
}

// hexToNRGBA parses "#RRGGBB" into an opaque color. Malformed input falls
// back to mid gray rather than failing the render.
func hexToNRGBA(hex string) color.NRGBA {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xFF}
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xFF}
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}
