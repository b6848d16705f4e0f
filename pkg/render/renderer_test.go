package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/dmvision/scenario-analyzer/pkg/types"
)

// createTestImage builds a uniform white image.
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, white)
		}
	}
	return img
}

func TestDrawBoxesEmptyItems(t *testing.T) {
	img := createTestImage(100, 100)

	out := DrawBoxes(img, nil, nil, "#FF0000")
	if out != image.Image(img) {
		t.Error("Expected input returned unchanged for empty items")
	}
}

func TestDrawBoxesDoesNotMutateSource(t *testing.T) {
	img := createTestImage(200, 200)
	boxes := []types.DetectionItem{
		{Label: "cat", BBox: []int{0, 0, 1000, 1000}, Confidence: 0.9},
	}

	DrawBoxes(img, boxes, nil, "#FF0000")

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if got := img.NRGBAAt(1, 1); got != white {
		t.Errorf("Source image was mutated: pixel (1,1) = %v", got)
	}
	if got := img.NRGBAAt(100, 100); got != white {
		t.Errorf("Source image was mutated: pixel (100,100) = %v", got)
	}
}

func TestDrawBoxesChangesPixels(t *testing.T) {
	img := createTestImage(200, 200)
	boxes := []types.DetectionItem{
		{Label: "cat", BBox: []int{0, 0, 1000, 1000}, Confidence: 0.9},
	}

	out := DrawBoxes(img, boxes, map[string]string{"cat": "#FF0000"}, "#999999")
	res, ok := out.(*image.NRGBA)
	if !ok {
		t.Fatalf("Expected *image.NRGBA result, got %T", out)
	}

	// Border pixel should carry the solid box color.
	border := res.NRGBAAt(0, 100)
	want := color.NRGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}
	if border != want {
		t.Errorf("Expected border pixel %v, got %v", want, border)
	}

	// Interior pixel should be white tinted by the semi-transparent fill.
	interior := res.NRGBAAt(100, 100)
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if interior == white {
		t.Error("Expected interior pixel tinted by the fill, got pure white")
	}
}

func TestDrawBoxesSkipsMalformedBox(t *testing.T) {
	img := createTestImage(100, 100)
	boxes := []types.DetectionItem{
		{Label: "broken", BBox: []int{10, 10, 900}},
	}

	out := DrawBoxes(img, boxes, nil, "#FF0000")
	res := out.(*image.NRGBA)

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for _, p := range []image.Point{{0, 0}, {50, 50}, {99, 99}} {
		if got := res.NRGBAAt(p.X, p.Y); got != white {
			t.Errorf("Expected malformed box to draw nothing, pixel %v = %v", p, got)
		}
	}
}

func TestDrawModelBadge(t *testing.T) {
	img := createTestImage(200, 100)

	out := DrawModelBadge(img, "qwen2.5vl:7b")
	res, ok := out.(*image.NRGBA)
	if !ok {
		t.Fatalf("Expected *image.NRGBA result, got %T", out)
	}

	// Bottom-right corner should now contain the black badge background.
	found := false
	for y := 60; y < 100 && !found; y++ {
		for x := 100; x < 200 && !found; x++ {
			c := res.NRGBAAt(x, y)
			if c.R == 0 && c.G == 0 && c.B == 0 && c.A == 255 {
				found = true
			}
		}
	}
	if !found {
		t.Error("Expected black badge pixels in the bottom-right region")
	}

	// Source stays untouched.
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if got := img.NRGBAAt(190, 90); got != white {
		t.Errorf("Source image was mutated: %v", got)
	}
}

func TestDrawModelBadgeEmptyName(t *testing.T) {
	img := createTestImage(100, 100)
	if out := DrawModelBadge(img, ""); out != image.Image(img) {
		t.Error("Expected input returned unchanged for empty model name")
	}
}

func TestBorderWidthFor(t *testing.T) {
	if bw := borderWidthFor(100, 100); bw != 2 {
		t.Errorf("Expected floor of 2 for small images, got %d", bw)
	}
	if bw := borderWidthFor(1800, 1200); bw != 4 {
		t.Errorf("Expected 4 for 1800x1200, got %d", bw)
	}
}

func TestTagText(t *testing.T) {
	got := tagText(types.DetectionItem{Label: "Cat", Confidence: 0.87})
	if got != " cat 87% " {
		t.Errorf("Expected \" cat 87%% \", got %q", got)
	}

	got = tagText(types.DetectionItem{Label: "cat"})
	if got != " cat " {
		t.Errorf("Expected confidence suffix omitted at zero, got %q", got)
	}

	got = tagText(types.DetectionItem{})
	if got != " unknown " {
		t.Errorf("Expected unknown placeholder, got %q", got)
	}
}
