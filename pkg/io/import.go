package io

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/matzehuels/comictools/pkg/document"
	errs "github.com/matzehuels/comictools/pkg/errors"
)

// ErrUnsupportedVersion is returned for document files written by a newer
// format version.
var ErrUnsupportedVersion = errors.New("unsupported document version")

// BackgroundLayer is the name of the layer created by [ReadPNG].
const BackgroundLayer = "Background"

var justifyFromString = map[string]document.Justification{
	"right":  document.JustifyRight,
	"center": document.JustifyCenter,
	"fill":   document.JustifyFill,
}

// ReadJSON decodes a JSON document from r.
//
// Missing layer IDs are generated. Layers without a visible or opacity field
// are visible and opaque. Pixel layers whose PNG size differs from the
// declared box take the PNG size. Canvases and layer boxes beyond the canvas
// limits are rejected. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*document.Document, error) {
	var data docFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if data.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, data.Version)
	}
	if err := errs.ValidateCanvasSize(data.Width, data.Height); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	doc := document.New(data.Width, data.Height)
	for _, g := range data.Guides {
		o := document.Horizontal
		if g.Orientation == document.Vertical.String() {
			o = document.Vertical
		}
		doc.AddGuide(o, g.Position)
	}
	for _, lf := range data.Layers {
		l, err := decodeLayer(lf)
		if err != nil {
			return nil, err
		}
		doc.AddLayer(l)
	}
	return doc, nil
}

func decodeLayer(lf layerFile) (*document.Layer, error) {
	l := &document.Layer{
		ID:      lf.ID,
		Name:    lf.Name,
		Kind:    document.ParseKind(lf.Kind),
		X:       lf.X,
		Y:       lf.Y,
		Width:   lf.Width,
		Height:  lf.Height,
		Visible: true,
		Opacity: 1,
	}
	if lf.Visible != nil {
		l.Visible = *lf.Visible
	}
	if lf.Opacity != nil {
		l.Opacity = *lf.Opacity
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	switch l.Kind {
	case document.KindGroup:
		l.X, l.Y, l.Width, l.Height = 0, 0, 0, 0
		for _, cf := range lf.Children {
			c, err := decodeLayer(cf)
			if err != nil {
				return nil, err
			}
			l.Children = append(l.Children, c)
		}
	case document.KindText:
		p := document.TextProps{}
		if t := lf.Text; t != nil {
			p = document.TextProps{
				Text:          t.Text,
				Font:          t.Font,
				FontSize:      t.Size,
				Justification: justifyFromString[t.Justify],
				LetterSpacing: t.LetterSpacing,
				LineSpacing:   t.LineSpacing,
				Indent:        t.Indent,
			}
		}
		l.Text = &p
	default:
		if len(lf.PNG) == 0 {
			if l.Width < 0 || l.Height < 0 {
				return nil, fmt.Errorf("layer %q: negative size %dx%d", lf.Name, l.Width, l.Height)
			}
			if l.Width > 0 && l.Height > 0 {
				if err := errs.ValidateCanvasSize(l.Width, l.Height); err != nil {
					return nil, fmt.Errorf("layer %q: %w", lf.Name, err)
				}
			}
			l.Pixels = image.NewNRGBA(image.Rect(0, 0, l.Width, l.Height))
			break
		}
		img, err := decodePNG(lf.PNG)
		if err != nil {
			return nil, fmt.Errorf("layer %q: decode png: %w", lf.Name, err)
		}
		px := document.NewImageLayer(l.Name, img).Pixels
		l.Pixels = px
		l.Width, l.Height = px.Rect.Dx(), px.Rect.Dy()
	}
	return l, nil
}

// ImportJSON reads a JSON document file.
func ImportJSON(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadPNG decodes a PNG into a document with a single layer named
// [BackgroundLayer] covering the canvas.
func ReadPNG(r io.Reader) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read png: %w", err)
	}
	img, err := decodePNG(data)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	b := img.Bounds()
	doc := document.New(b.Dx(), b.Dy())
	doc.AddLayer(document.NewImageLayer(BackgroundLayer, img))
	return doc, nil
}

// decodePNG checks the PNG header against the canvas limits before decoding
// the pixels.
func decodePNG(data []byte) (image.Image, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := errs.ValidateCanvasSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(data))
}

// ImportPNG reads a PNG file as a one-layer document.
func ImportPNG(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPNG(f)
}
