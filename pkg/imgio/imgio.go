// Package imgio loads and saves images for the scenario pipeline. Opening
// applies EXIF orientation so downstream boxes are expressed against the
// displayed pixel grid; WebP is supported on both ends.
package imgio

import (
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// MIMEType maps an allowed upload extension to the MIME subtype used in the
// response payload. Unknown extensions default to jpeg.
func MIMEType(ext string) string {
	switch strings.ToLower(ext) {
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Open loads an image from path with EXIF auto-orientation. Files that the
// registered decoders reject get one more chance as raw WebP.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	f, ferr := os.Open(path)
	if ferr != nil {
		return nil, fmt.Errorf("failed to open image file: %w", ferr)
	}
	defer f.Close()
	if img, werr := webp.Decode(f); werr == nil {
		return img, nil
	}
	return nil, fmt.Errorf("failed to decode image: %w", err)
}

// Save writes img to path, choosing the encoder from the file extension.
func Save(img image.Image, path string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Quality: 90})
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(90))
	}
}

// FileToBase64 reads a file and returns its base64-encoded contents.
func FileToBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
