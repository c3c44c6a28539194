package document

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ChannelOp selects how a new rectangle combines with the selection.
type ChannelOp int

const (
	// OpReplace discards the current selection.
	OpReplace ChannelOp = iota
	// OpAdd adds the rectangle as another island.
	OpAdd
)

var (
	// ErrNothingSelected is returned by clipboard operations without a selection.
	ErrNothingSelected = errors.New("nothing selected")

	// ErrEmptyClipboard is returned by Paste before anything was copied.
	ErrEmptyClipboard = errors.New("clipboard is empty")

	// ErrFloatingExists is returned by Paste while a floating selection is
	// still unanchored.
	ErrFloatingExists = errors.New("a floating selection already exists")
)

// SelectRectangle selects the rectangle (x, y, w, h), clipped to the canvas.
// An empty result leaves the selection unchanged for OpAdd and clears it for
// OpReplace.
func (d *Document) SelectRectangle(op ChannelOp, x, y, w, h int) {
	r := image.Rect(x, y, x+w, y+h).Intersect(d.Bounds())
	if op == OpReplace {
		d.selection = nil
	}
	if !r.Empty() {
		d.selection = append(d.selection, r)
	}
}

// SelectNone clears the selection.
func (d *Document) SelectNone() {
	d.selection = nil
}

// SelectionBounds reports whether anything is selected and the bounding box
// of the selection.
func (d *Document) SelectionBounds() (bool, image.Rectangle) {
	var u image.Rectangle
	for _, r := range d.selection {
		u = u.Union(r)
	}
	return !u.Empty(), u
}

// SelectionIslands returns the selected rectangles in the order they were
// added. Each rectangle is treated as an independent island.
func (d *Document) SelectionIslands() []image.Rectangle {
	return append([]image.Rectangle(nil), d.selection...)
}

// ShrinkSelection insets every island by n pixels and drops islands that
// become empty.
func (d *Document) ShrinkSelection(n int) {
	kept := d.selection[:0]
	for _, r := range d.selection {
		r = r.Inset(n)
		if r.Dx() > 0 && r.Dy() > 0 {
			kept = append(kept, r)
		}
	}
	d.selection = kept
}

func clipRects(rs []image.Rectangle, bounds image.Rectangle) []image.Rectangle {
	kept := rs[:0]
	for _, r := range rs {
		if r = r.Intersect(bounds); !r.Empty() {
			kept = append(kept, r)
		}
	}
	return kept
}

// clip is the clipboard content: pixels plus the canvas position they were
// copied from.
type clip struct {
	img    *image.NRGBA
	origin image.Point
}

// Copy copies the selected pixels of layer to the clipboard. The clipboard
// covers the selection's bounding box; pixels outside the selection or
// outside the layer are transparent.
func (d *Document) Copy(layer *Layer) error {
	ok, bounds := d.SelectionBounds()
	if !ok {
		return ErrNothingSelected
	}
	if layer.Kind != KindPixel {
		return fmt.Errorf("copy from %s layer %q: not a pixel layer", layer.Kind, layer.Name)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	lb := layer.Bounds()
	for _, r := range d.selection {
		src := r.Intersect(lb)
		if src.Empty() {
			continue
		}
		draw.Draw(dst, src.Sub(bounds.Min), layer.Pixels, src.Min.Sub(lb.Min), draw.Src)
	}
	d.clipboard = &clip{img: dst, origin: bounds.Min}
	return nil
}

// Clipboard returns a copy of the clipboard image, or nil when empty.
func (d *Document) Clipboard() *image.NRGBA {
	if d.clipboard == nil {
		return nil
	}
	c := image.NewNRGBA(d.clipboard.img.Rect)
	copy(c.Pix, d.clipboard.img.Pix)
	return c
}

// SetClipboard replaces the clipboard with img, positioned at the origin.
func (d *Document) SetClipboard(img image.Image) {
	b := img.Bounds()
	c := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(c, c.Bounds(), img, b.Min, draw.Src)
	d.clipboard = &clip{img: c}
}

// Floating is a pasted, not yet anchored pixel buffer attached to a target
// layer.
type Floating struct {
	doc    *Document
	target *Layer
	img    *image.NRGBA
	x, y   int
}

// Paste creates a floating selection from the clipboard, attached to layer
// and positioned where the clipboard content was copied from.
func (d *Document) Paste(layer *Layer) (*Floating, error) {
	if d.clipboard == nil {
		return nil, ErrEmptyClipboard
	}
	if d.floating != nil {
		return nil, ErrFloatingExists
	}
	if layer.Kind != KindPixel {
		return nil, fmt.Errorf("paste into %s layer %q: not a pixel layer", layer.Kind, layer.Name)
	}
	img := image.NewNRGBA(d.clipboard.img.Rect)
	copy(img.Pix, d.clipboard.img.Pix)
	f := &Floating{
		doc:    d,
		target: layer,
		img:    img,
		x:      d.clipboard.origin.X,
		y:      d.clipboard.origin.Y,
	}
	d.floating = f
	return f, nil
}

// FloatingSelection returns the current floating selection, if any.
func (d *Document) FloatingSelection() *Floating {
	return d.floating
}

// Bounds returns the floating buffer's canvas rectangle.
func (f *Floating) Bounds() image.Rectangle {
	return f.img.Rect.Add(image.Pt(f.x, f.y))
}

// SetOffsets moves the floating selection.
func (f *Floating) SetOffsets(x, y int) {
	f.x, f.y = x, y
}

// Flip mirrors the floating buffer around its own centre. Horizontal mirrors
// columns, Vertical mirrors rows.
func (f *Floating) Flip(axis Orientation) {
	w, h := f.img.Rect.Dx(), f.img.Rect.Dy()
	px := f.img.Pix
	stride := f.img.Stride
	if axis == Horizontal {
		for y := 0; y < h; y++ {
			row := px[y*stride : y*stride+w*4]
			for i, j := 0, w-1; i < j; i, j = i+1, j-1 {
				a, b := row[i*4:i*4+4], row[j*4:j*4+4]
				for k := 0; k < 4; k++ {
					a[k], b[k] = b[k], a[k]
				}
			}
		}
		return
	}
	tmp := make([]uint8, w*4)
	for i, j := 0, h-1; i < j; i, j = i+1, j-1 {
		a := px[i*stride : i*stride+w*4]
		b := px[j*stride : j*stride+w*4]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// Anchor composites the floating buffer over its target layer and removes
// the floating selection. Pixels outside the target are discarded.
func (f *Floating) Anchor() error {
	if f.doc.floating != f {
		return errors.New("floating selection is no longer attached")
	}
	t := f.target
	dst := f.Bounds().Intersect(t.Bounds())
	if !dst.Empty() {
		sp := dst.Min.Sub(image.Pt(f.x, f.y))
		draw.Draw(t.Pixels, dst.Sub(image.Pt(t.X, t.Y)), f.img, sp, draw.Over)
	}
	f.doc.floating = nil
	return nil
}

// FillSelection paints every selected pixel of layer with c.
func (d *Document) FillSelection(layer *Layer, c color.Color) error {
	if layer.Kind != KindPixel {
		return fmt.Errorf("fill %s layer %q: not a pixel layer", layer.Kind, layer.Name)
	}
	src := image.NewUniform(c)
	lb := layer.Bounds()
	for _, r := range d.selection {
		r = r.Intersect(lb)
		if r.Empty() {
			continue
		}
		draw.Draw(layer.Pixels, r.Sub(lb.Min), src, image.Point{}, draw.Src)
	}
	return nil
}
