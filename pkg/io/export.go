package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/fonts"
)

// Version is the document format version written by [WriteJSON].
const Version = 1

var justifyToString = map[document.Justification]string{
	document.JustifyRight:  "right",
	document.JustifyCenter: "center",
	document.JustifyFill:   "fill",
}

type docFile struct {
	Version int         `json:"version"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Guides  []guideFile `json:"guides,omitempty"`
	Layers  []layerFile `json:"layers"`
}

type guideFile struct {
	Orientation string `json:"orientation"`
	Position    int    `json:"position"`
}

type layerFile struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	X        int         `json:"x,omitempty"`
	Y        int         `json:"y,omitempty"`
	Width    int         `json:"width,omitempty"`
	Height   int         `json:"height,omitempty"`
	Visible  *bool       `json:"visible,omitempty"`
	Opacity  *float64    `json:"opacity,omitempty"`
	PNG      []byte      `json:"png,omitempty"`
	Text     *textFile   `json:"text,omitempty"`
	Children []layerFile `json:"children,omitempty"`
}

type textFile struct {
	Text          string  `json:"text"`
	Font          string  `json:"font,omitempty"`
	Size          float64 `json:"size"`
	Justify       string  `json:"justify,omitempty"`
	LetterSpacing float64 `json:"letter_spacing,omitempty"`
	LineSpacing   float64 `json:"line_spacing,omitempty"`
	Indent        float64 `json:"indent,omitempty"`
}

// WriteJSON encodes doc as a JSON document and writes it to w.
func WriteJSON(doc *document.Document, w io.Writer) error {
	out := docFile{
		Version: Version,
		Width:   doc.Width,
		Height:  doc.Height,
	}
	for _, g := range doc.Guides() {
		out.Guides = append(out.Guides, guideFile{Orientation: g.Orientation.String(), Position: g.Position})
	}
	for _, l := range doc.Layers() {
		lf, err := encodeLayer(l)
		if err != nil {
			return err
		}
		out.Layers = append(out.Layers, lf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func encodeLayer(l *document.Layer) (layerFile, error) {
	lf := layerFile{
		ID:      l.ID,
		Name:    l.Name,
		Kind:    l.Kind.String(),
		Visible: &l.Visible,
		Opacity: &l.Opacity,
	}
	switch l.Kind {
	case document.KindGroup:
		for _, c := range l.Children {
			cf, err := encodeLayer(c)
			if err != nil {
				return lf, err
			}
			lf.Children = append(lf.Children, cf)
		}
		return lf, nil
	case document.KindText:
		if p := l.Text; p != nil {
			lf.Text = &textFile{
				Text:          p.Text,
				Font:          p.Font,
				Size:          p.FontSize,
				Justify:       justifyToString[p.Justification],
				LetterSpacing: p.LetterSpacing,
				LineSpacing:   p.LineSpacing,
				Indent:        p.Indent,
			}
		}
	case document.KindPixel:
		if l.Pixels != nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, l.Pixels); err != nil {
				return lf, fmt.Errorf("layer %q: encode png: %w", l.Name, err)
			}
			lf.PNG = buf.Bytes()
		}
	}
	lf.X, lf.Y = l.X, l.Y
	lf.Width, lf.Height = l.Width, l.Height
	return lf, nil
}

// ExportJSON writes doc to a JSON file at path.
func ExportJSON(doc *document.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(doc, f)
}

// Flatten composites the visible layers bottom-up into one canvas-sized
// image. Text is drawn in black.
func Flatten(doc *document.Document) (*image.NRGBA, error) {
	dst := image.NewNRGBA(doc.Bounds())
	if err := composite(dst, doc.Layers()); err != nil {
		return nil, err
	}
	return dst, nil
}

func composite(dst *image.NRGBA, layers []*document.Layer) error {
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		var src *image.NRGBA
		var sp image.Point
		switch l.Kind {
		case document.KindGroup:
			src = image.NewNRGBA(dst.Bounds())
			if err := composite(src, l.Children); err != nil {
				return err
			}
			sp = dst.Bounds().Min
		case document.KindText:
			src = image.NewNRGBA(dst.Bounds())
			if err := fonts.DrawLayer(src, l, color.Black); err != nil {
				return fmt.Errorf("layer %q: %w", l.Name, err)
			}
			sp = dst.Bounds().Min
		default:
			if l.Pixels == nil {
				continue
			}
			src = l.Pixels
		}

		r := dst.Bounds()
		if l.Kind == document.KindPixel {
			r = l.Bounds().Intersect(dst.Bounds())
			sp = r.Min.Sub(image.Pt(l.X, l.Y))
		}
		if r.Empty() {
			continue
		}
		if l.Opacity >= 1 {
			draw.Draw(dst, r, src, sp, draw.Over)
			continue
		}
		mask := image.NewUniform(color.Alpha{A: uint8(l.Opacity * 255)})
		draw.DrawMask(dst, r, src, sp, mask, image.Point{}, draw.Over)
	}
	return nil
}

// WritePNG flattens doc and writes it to w as PNG.
func WritePNG(doc *document.Document, w io.Writer) error {
	img, err := Flatten(doc)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// ExportPNG writes the flattened document to path.
func ExportPNG(doc *document.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WritePNG(doc, f)
}
