package document

import (
	"image"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// Kind distinguishes pixel, text and group layers.
type Kind int

const (
	KindPixel Kind = iota
	KindText
	KindGroup
)

// String returns the lowercase kind name used in document files.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindGroup:
		return "group"
	default:
		return "pixel"
	}
}

// ParseKind is the inverse of [Kind.String]. Unknown names map to KindPixel.
func ParseKind(s string) Kind {
	switch s {
	case "text":
		return KindText
	case "group":
		return KindGroup
	default:
		return KindPixel
	}
}

// Justification controls horizontal alignment of text layer lines.
type Justification int

const (
	JustifyLeft Justification = iota
	JustifyRight
	JustifyCenter
	JustifyFill
)

// TextProps holds the editable properties of a text layer.
type TextProps struct {
	Text          string
	Font          string
	FontSize      float64 // pixels
	Justification Justification
	LetterSpacing float64
	LineSpacing   float64
	Indent        float64
}

// Layer is a node in the document's layer tree.
//
// X and Y are canvas offsets; Width and Height are the layer box. For pixel
// layers Pixels always has bounds (0,0)-(Width,Height). Groups ignore the
// geometry fields and derive their bounds from their children.
type Layer struct {
	ID      string
	Name    string
	Kind    Kind
	X, Y    int
	Width   int
	Height  int
	Visible bool
	Opacity float64

	Pixels   *image.NRGBA
	Text     *TextProps
	Children []*Layer
}

// NewPixelLayer creates a transparent pixel layer at the origin.
func NewPixelLayer(name string, w, h int) *Layer {
	return &Layer{
		ID:      uuid.NewString(),
		Name:    name,
		Kind:    KindPixel,
		Width:   w,
		Height:  h,
		Visible: true,
		Opacity: 1,
		Pixels:  image.NewNRGBA(image.Rect(0, 0, w, h)),
	}
}

// NewImageLayer creates a pixel layer holding a copy of img.
func NewImageLayer(name string, img image.Image) *Layer {
	b := img.Bounds()
	l := NewPixelLayer(name, b.Dx(), b.Dy())
	draw.Draw(l.Pixels, l.Pixels.Bounds(), img, b.Min, draw.Src)
	return l
}

// NewTextLayer creates a text layer with the given box.
func NewTextLayer(name string, props TextProps, w, h int) *Layer {
	p := props
	return &Layer{
		ID:      uuid.NewString(),
		Name:    name,
		Kind:    KindText,
		Width:   w,
		Height:  h,
		Visible: true,
		Opacity: 1,
		Text:    &p,
	}
}

// NewGroup creates an empty layer group.
func NewGroup(name string) *Layer {
	return &Layer{
		ID:      uuid.NewString(),
		Name:    name,
		Kind:    KindGroup,
		Visible: true,
		Opacity: 1,
	}
}

// IsGroup reports whether l is a layer group.
func (l *Layer) IsGroup() bool { return l.Kind == KindGroup }

// IsText reports whether l is a text layer.
func (l *Layer) IsText() bool { return l.Kind == KindText }

// Offsets returns the layer's canvas offsets.
func (l *Layer) Offsets() (x, y int) { return l.X, l.Y }

// SetOffsets moves the layer without touching its content.
// Moving a group moves every descendant by the same delta.
func (l *Layer) SetOffsets(x, y int) {
	if l.IsGroup() {
		b := l.Bounds()
		l.translate(x-b.Min.X, y-b.Min.Y)
		return
	}
	l.X, l.Y = x, y
}

func (l *Layer) translate(dx, dy int) {
	if l.IsGroup() {
		for _, c := range l.Children {
			c.translate(dx, dy)
		}
		return
	}
	l.X += dx
	l.Y += dy
}

// Bounds returns the layer box in canvas coordinates. A group's bounds are
// the union of its children's bounds.
func (l *Layer) Bounds() image.Rectangle {
	if l.IsGroup() {
		var r image.Rectangle
		for _, c := range l.Children {
			r = r.Union(c.Bounds())
		}
		return r
	}
	return image.Rect(l.X, l.Y, l.X+l.Width, l.Y+l.Height)
}

// ChildList returns a snapshot of the group's children. Callers may mutate
// the tree while iterating the returned slice.
func (l *Layer) ChildList() []*Layer {
	return append([]*Layer(nil), l.Children...)
}

// Resize changes the layer box to w × h. The existing content is placed at
// (offX, offY) inside the new box and keeps its canvas position, so the
// layer's offsets move by (-offX, -offY).
//
// Text layers only change their box.
func (l *Layer) Resize(w, h, offX, offY int) {
	if l.IsGroup() {
		return
	}
	if l.Kind == KindPixel {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		if l.Pixels != nil {
			r := l.Pixels.Bounds().Add(image.Pt(offX, offY))
			draw.Draw(dst, r, l.Pixels, l.Pixels.Bounds().Min, draw.Src)
		}
		l.Pixels = dst
	}
	l.X -= offX
	l.Y -= offY
	l.Width, l.Height = w, h
}

// Clear makes every pixel of a pixel layer transparent.
func (l *Layer) Clear() {
	if l.Kind != KindPixel || l.Pixels == nil {
		return
	}
	clear(l.Pixels.Pix)
}

// PixelAt returns the colour at canvas point (x, y), or transparent when the
// point is outside the layer.
func (l *Layer) PixelAt(x, y int) (c [4]uint8) {
	if l.Kind != KindPixel || l.Pixels == nil {
		return c
	}
	p := image.Pt(x-l.X, y-l.Y)
	if !p.In(l.Pixels.Bounds()) {
		return c
	}
	i := l.Pixels.PixOffset(p.X, p.Y)
	copy(c[:], l.Pixels.Pix[i:i+4])
	return c
}

func (l *Layer) clone() *Layer {
	n := *l
	if l.Pixels != nil {
		px := image.NewNRGBA(l.Pixels.Rect)
		copy(px.Pix, l.Pixels.Pix)
		n.Pixels = px
	}
	if l.Text != nil {
		t := *l.Text
		n.Text = &t
	}
	if l.Children != nil {
		n.Children = make([]*Layer, len(l.Children))
		for i, c := range l.Children {
			n.Children[i] = c.clone()
		}
	}
	return &n
}
