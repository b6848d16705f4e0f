package render

import (
	"image/color"
	"testing"

	"github.com/dmvision/scenario-analyzer/pkg/types"
)

func items(labels ...string) []types.DetectionItem {
	out := make([]types.DetectionItem, len(labels))
	for i, l := range labels {
		out[i] = types.DetectionItem{Label: l, BBox: []int{0, 0, 100, 100}}
	}
	return out
}

func TestBuildColorMapFirstSeenOrder(t *testing.T) {
	colors := BuildColorMap(items("cat", "dog", "cat", "bird"), Palette)

	if len(colors) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(colors))
	}
	if colors["cat"] != Palette[0] {
		t.Errorf("Expected cat to get %s, got %s", Palette[0], colors["cat"])
	}
	if colors["dog"] != Palette[1] {
		t.Errorf("Expected dog to get %s, got %s", Palette[1], colors["dog"])
	}
	if colors["bird"] != Palette[2] {
		t.Errorf("Expected bird to get %s, got %s", Palette[2], colors["bird"])
	}
}

func TestBuildColorMapDeterministic(t *testing.T) {
	in := items("car", "person", "bicycle")
	first := BuildColorMap(in, Palette)
	second := BuildColorMap(in, Palette)

	for label, c := range first {
		if second[label] != c {
			t.Errorf("Color for %q changed between runs: %s vs %s", label, c, second[label])
		}
	}
}

func TestBuildColorMapCaseFolding(t *testing.T) {
	colors := BuildColorMap(items("Cat", "cat", "CAT"), Palette)

	if len(colors) != 1 {
		t.Fatalf("Expected 1 entry for case variants, got %d", len(colors))
	}
	if colors["cat"] != Palette[0] {
		t.Errorf("Expected cat to get %s, got %s", Palette[0], colors["cat"])
	}
}

func TestBuildColorMapCycling(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	colors := BuildColorMap(items(labels...), Palette)

	if colors["k"] != Palette[0] {
		t.Errorf("Expected 11th label to cycle back to %s, got %s", Palette[0], colors["k"])
	}
	if colors["l"] != Palette[1] {
		t.Errorf("Expected 12th label to get %s, got %s", Palette[1], colors["l"])
	}
}

func TestBuildColorMapEmptyLabel(t *testing.T) {
	colors := BuildColorMap(items(""), Palette)

	if colors["unknown"] != Palette[0] {
		t.Errorf("Expected empty label mapped to unknown with %s, got %v", Palette[0], colors)
	}
}

func TestHexToNRGBA(t *testing.T) {
	c := hexToNRGBA("#FF6B6B")
	want := color.NRGBA{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF}
	if c != want {
		t.Errorf("Expected %v, got %v", want, c)
	}

	gray := color.NRGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xFF}
	for _, bad := range []string{"", "#FFF", "#GGGGGG", "red"} {
		if got := hexToNRGBA(bad); got != gray {
			t.Errorf("Expected gray fallback for %q, got %v", bad, got)
		}
	}
}
