package fonts

import (
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	measureSize    = 100
	measurePadding = 1
)

// Metrics describes where ink falls within a line box, as fractions of the
// line height. HeaderFraction+TextFraction+FooterFraction is 1.
type Metrics struct {
	HeaderFraction float64
	TextFraction   float64
	FooterFraction float64

	// LineHeightToFontSize converts a line height in pixels to the font size
	// that produces it.
	LineHeightToFontSize float64
}

// MeasureMetrics draws sample at a fixed size and measures the rows its ink
// actually covers. Samples without ink report the whole line as text.
func (f *Font) MeasureMetrics(sample string) (Metrics, error) {
	w, h, err := f.Extents(sample, measureSize)
	if err != nil {
		return Metrics{}, err
	}
	if h <= 0 {
		return Metrics{TextFraction: 1, LineHeightToFontSize: 1}, nil
	}

	face, err := f.Face(measureSize)
	if err != nil {
		return Metrics{}, err
	}
	defer face.Close()

	iw := int(math.Ceil(w)) + 2*measurePadding
	ih := int(math.Ceil(h)) + 2*measurePadding
	img := image.NewGray(image.Rect(0, 0, iw, ih))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	drawLines(img, face, sample, measurePadding, measurePadding)

	top, bottom, ok := inkRows(img)
	m := Metrics{LineHeightToFontSize: measureSize / h}
	if !ok {
		m.TextFraction = 1
		return m, nil
	}
	y1 := float64(top - measurePadding)
	y2 := float64(bottom - measurePadding)
	m.HeaderFraction = y1 / h
	m.TextFraction = (y2 - y1) / h
	m.FooterFraction = (h - y2) / h
	return m, nil
}

func drawLines(dst draw.Image, face font.Face, text string, x, y int) {
	m := face.Metrics()
	d := font.Drawer{Dst: dst, Src: image.Black, Face: face}
	baseline := fixed.I(y) + m.Ascent
	for _, line := range strings.Split(text, "\n") {
		d.Dot = fixed.Point26_6{X: fixed.I(x), Y: baseline}
		d.DrawString(line)
		baseline += m.Height
	}
}

// inkRows returns the first row and one past the last row containing a
// non-white pixel.
func inkRows(img *image.Gray) (top, bottom int, ok bool) {
	b := img.Bounds()
	top, bottom = -1, -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()]
		for _, v := range row {
			if v < 0xff {
				if top < 0 {
					top = y
				}
				bottom = y + 1
				break
			}
		}
	}
	return top, bottom, top >= 0
}
