// Package render turns vision-model detections into annotated images:
// semi-transparent fills, label tags, solid borders, and a model badge.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dmvision/scenario-analyzer/pkg/types"
)

const (
	fillAlpha  = 50  // box interior stays readable through the fill
	tagAlpha   = 220 // label tag background is nearly opaque
	tagPadding = 2
	badgePad   = 3
	badgeInset = 6
)

var textColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// DrawBoxes renders detection items onto a copy of img. The source image is
// never modified; with no items the input is returned unchanged.
//
// Pass order matters: all fills and label tags go onto a transparent overlay
// that is alpha-composited in one step, then solid borders are drawn directly
// onto the composite so they are not dimmed by the fill layer. Items whose
// BBox does not have exactly four components contribute nothing.
func DrawBoxes(img image.Image, items []types.DetectionItem, labelColors map[string]string, defaultColor string) image.Image {
	if len(items) == 0 {
		return img
	}

	base := imaging.Clone(img)
	bounds := base.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	borderWidth := borderWidthFor(width, height)
	face := basicfont.Face7x13

	// Fills and label tags on a transparent overlay.
	overlay := image.NewNRGBA(bounds)
	for _, item := range items {
		rect, ok := MapToPixels(item.BBox, width, height)
		if !ok {
			continue
		}
		c := itemColor(item, labelColors, defaultColor)

		fill := c
		fill.A = fillAlpha
		draw.Draw(overlay, rect, image.NewUniform(fill), image.Point{}, draw.Src)

		tag := tagText(item)
		tw := font.MeasureString(face, tag).Ceil()
		th := face.Metrics().Height.Ceil()

		ty := rect.Min.Y - th - tagPadding*2 - borderWidth
		if ty < 0 {
			// Not enough room above the box; place the tag inside it.
			ty = rect.Min.Y + borderWidth
		}
		tagRect := image.Rect(rect.Min.X, ty, rect.Min.X+tw+tagPadding*2, ty+th+tagPadding*2)
		bg := c
		bg.A = tagAlpha
		draw.Draw(overlay, tagRect, image.NewUniform(bg), image.Point{}, draw.Src)

		d := &font.Drawer{
			Dst:  overlay,
			Src:  image.NewUniform(textColor),
			Face: face,
			Dot:  fixed.P(rect.Min.X+tagPadding, ty+tagPadding+face.Metrics().Ascent.Ceil()),
		}
		d.DrawString(strings.TrimSpace(tag))
	}
	draw.Draw(base, bounds, overlay, bounds.Min, draw.Over)

	// Solid borders on the composited image.
	for _, item := range items {
		rect, ok := MapToPixels(item.BBox, width, height)
		if !ok {
			continue
		}
		drawBorder(base, rect, itemColor(item, labelColors, defaultColor), borderWidth)
	}

	return base
}

// DrawModelBadge stamps an "AI: <model>" badge in the bottom-right corner of
// a copy of img. An empty model name returns the input unchanged.
func DrawModelBadge(img image.Image, modelName string) image.Image {
	if modelName == "" {
		return img
	}

	result := imaging.Clone(img)
	bounds := result.Bounds()
	face := basicfont.Face7x13
	text := "AI: " + modelName

	tw := font.MeasureString(face, text).Ceil()
	th := face.Metrics().Height.Ceil()
	x := bounds.Dx() - tw - badgePad*2 - badgeInset
	y := bounds.Dy() - th - badgePad*2 - badgeInset

	badge := image.Rect(x, y, x+tw+badgePad*2, y+th+badgePad*2)
	draw.Draw(result, badge, image.NewUniform(color.NRGBA{A: 255}), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  result,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x+badgePad, y+badgePad+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	return result
}

// tagText composes " <label> <confidence%> "; the confidence suffix appears
// only when confidence > 0.
func tagText(item types.DetectionItem) string {
	label := strings.ToLower(item.Label)
	if label == "" {
		label = "unknown"
	}
	tag := " " + label
	if item.Confidence > 0 {
		tag += " " + strconv.Itoa(int(item.Confidence*100+0.5)) + "%"
	}
	return tag + " "
}

func itemColor(item types.DetectionItem, labelColors map[string]string, defaultColor string) color.NRGBA {
	label := strings.ToLower(item.Label)
	if label == "" {
		label = "unknown"
	}
	if hex, ok := labelColors[label]; ok {
		return hexToNRGBA(hex)
	}
	return hexToNRGBA(defaultColor)
}

// borderWidthFor scales the border with the smaller image dimension, with a
// floor of 2px so boxes stay visible on small images.
func borderWidthFor(width, height int) int {
	minDim := width
	if height < minDim {
		minDim = height
	}
	bw := minDim / 300
	if bw < 2 {
		bw = 2
	}
	return bw
}

func drawBorder(img *image.NRGBA, rect image.Rectangle, c color.NRGBA, width int) {
	for s := 0; s < width; s++ {
		drawHLine(img, rect.Min.Y+s, rect.Min.X, rect.Max.X, c)
		drawHLine(img, rect.Max.Y-1-s, rect.Min.X, rect.Max.X, c)
		drawVLine(img, rect.Min.X+s, rect.Min.Y, rect.Max.Y, c)
		drawVLine(img, rect.Max.X-1-s, rect.Min.Y, rect.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
