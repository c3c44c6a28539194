package ocr

import (
	"image"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/fonts"
)

// Padding added around a fitted text layer so glyph overhang is not clipped.
const (
	fitPadX = 10
	fitPadY = 5
)

// Fit is the geometry and text properties that make a text layer in a given
// font cover a recognised box.
type Fit struct {
	X, Y, Width, Height int
	Props               document.TextProps
}

// FitText computes how text must be set in f so its ink fills box.
//
// The font's header and footer (the space above the first line's ink and
// below the last line's) are measured, the box height is divided among the
// visible lines, and the font size follows from the resulting line height.
// Letter spacing stretches the longest line to the box width and line
// spacing spreads the lines over the full height. The layer box is padded
// and the text centred.
func FitText(f *fonts.Font, text string, box image.Rectangle) (Fit, error) {
	lines := strings.Split(text, "\n")
	n := len(lines)
	w, h := float64(box.Dx()), float64(box.Dy())

	first, err := f.MeasureMetrics(lines[0])
	if err != nil {
		return Fit{}, err
	}
	last := first
	if n > 1 {
		if last, err = f.MeasureMetrics(lines[n-1]); err != nil {
			return Fit{}, err
		}
	}

	visible := float64(n) - first.HeaderFraction - last.FooterFraction
	if visible <= 0 {
		visible = float64(n)
	}
	lineHeight := h / visible
	header := lineHeight * first.HeaderFraction
	footer := lineHeight * last.FooterFraction
	size := math.Round(lineHeight * first.LineHeightToFontSize)
	if size < 1 {
		size = 1
	}

	longest, longestW := lines[0], 0.0
	for _, line := range lines {
		if lw := f.Advance(line, size); lw > longestW {
			longest, longestW = line, lw
		}
	}
	var letterSpacing float64
	if gaps := utf8.RuneCountInString(longest) - 1; gaps > 0 {
		letterSpacing = (w - longestW) / float64(gaps)
	}

	fullHeight := h + header + footer
	var lineSpacing float64
	if n > 1 {
		_, textH, err := f.Extents(text, size)
		if err != nil {
			return Fit{}, err
		}
		lineSpacing = (fullHeight - textH) / float64(n-1)
	}

	return Fit{
		X:      box.Min.X - fitPadX,
		Y:      int(math.Round(float64(box.Min.Y) - header)),
		Width:  box.Dx() + 2*fitPadX,
		Height: int(math.Round(fullHeight)) + fitPadY,
		Props: document.TextProps{
			Text:          text,
			Font:          f.Name,
			FontSize:      size,
			Justification: document.JustifyCenter,
			LetterSpacing: letterSpacing,
			LineSpacing:   lineSpacing,
		},
	}, nil
}

// Layer creates the text layer described by fit.
func (fit Fit) Layer() *document.Layer {
	name := fit.Props.Text
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	l := document.NewTextLayer(name, fit.Props, fit.Width, fit.Height)
	l.SetOffsets(fit.X, fit.Y)
	return l
}
