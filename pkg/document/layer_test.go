package document

import (
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindPixel, KindText, KindGroup} {
		if got := ParseKind(k.String()); got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if got := ParseKind("channel"); got != KindPixel {
		t.Errorf("ParseKind(unknown) = %v, want pixel", got)
	}
}

func TestLayerResize(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	l := NewImageLayer("art", solid(4, 4, red))
	l.SetOffsets(10, 20)

	l.Resize(8, 6, 3, 1)

	if got, want := l.Bounds(), image.Rect(7, 19, 15, 25); got != want {
		t.Fatalf("bounds = %v, want %v", got, want)
	}
	if got := l.Pixels.Bounds(); got != image.Rect(0, 0, 8, 6) {
		t.Fatalf("pixel bounds = %v", got)
	}
	// Content keeps its canvas position.
	if got := l.PixelAt(10, 20); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("content pixel = %v", got)
	}
	if got := l.PixelAt(7, 19); got[3] != 0 {
		t.Errorf("new area should be transparent, got %v", got)
	}
}

func TestTextLayerResizeKeepsNoPixels(t *testing.T) {
	l := NewTextLayer("caption", TextProps{Text: "hi", FontSize: 10}, 30, 10)
	l.Resize(40, 12, 5, 1)
	if l.Pixels != nil {
		t.Error("text layer gained pixels")
	}
	if got, want := l.Bounds(), image.Rect(-5, -1, 35, 11); got != want {
		t.Errorf("bounds = %v, want %v", got, want)
	}
}

func TestGroupSetOffsetsMovesChildren(t *testing.T) {
	a := NewPixelLayer("a", 10, 10)
	a.SetOffsets(5, 5)
	b := NewPixelLayer("b", 10, 10)
	b.SetOffsets(20, 30)
	g := NewGroup("g")
	g.Children = []*Layer{a, b}

	if got, want := g.Bounds(), image.Rect(5, 5, 30, 40); got != want {
		t.Fatalf("group bounds = %v, want %v", got, want)
	}
	g.SetOffsets(0, 0)
	if x, y := a.Offsets(); x != 0 || y != 0 {
		t.Errorf("a offsets = %d,%d, want 0,0", x, y)
	}
	if x, y := b.Offsets(); x != 15 || y != 25 {
		t.Errorf("b offsets = %d,%d, want 15,25", x, y)
	}
}

func TestLayerClearAndPixelAt(t *testing.T) {
	l := NewImageLayer("art", solid(2, 2, color.NRGBA{G: 9, A: 255}))
	if got := l.PixelAt(-1, 0); got != ([4]uint8{}) {
		t.Errorf("outside pixel = %v, want zero", got)
	}
	l.Clear()
	if got := l.PixelAt(1, 1); got != ([4]uint8{}) {
		t.Errorf("cleared pixel = %v, want zero", got)
	}
}

func TestLayerCloneIsDeep(t *testing.T) {
	l := NewImageLayer("art", solid(2, 2, color.NRGBA{B: 1, A: 255}))
	g := NewGroup("g")
	g.Children = []*Layer{l}

	c := g.clone()
	c.Children[0].Pixels.Pix[0] = 99
	c.Children[0].SetOffsets(50, 50)

	if l.Pixels.Pix[0] == 99 {
		t.Error("clone shares pixel data")
	}
	if x, _ := l.Offsets(); x != 0 {
		t.Error("clone shares child layer")
	}
}
