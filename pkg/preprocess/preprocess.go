// Package preprocess applies named in-memory image transformations before
// the AI call, in the order a scenario's configuration lists them.
package preprocess

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Resize bounds: images already within them are returned unchanged (no
// upscaling); larger images are scaled down proportionally.
const (
	maxWidth  = 800
	maxHeight = 600
)

// Func transforms an in-memory image into one of the same or smaller
// footprint.
type Func func(image.Image) image.Image

var registry = map[string]Func{
	"resize": Resize,
}

// Run applies the named preprocessors in order. An unknown name is an error;
// scenario configurations are static, so this only fires on a typo.
func Run(img image.Image, names []string) (image.Image, error) {
	for _, name := range names {
		fn, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown preprocessor %q", name)
		}
		img = fn(img)
	}
	return img, nil
}

// Resize fits the image within 800x600, preserving aspect ratio. Smaller
// images pass through untouched.
func Resize(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}
