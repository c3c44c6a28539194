package fonts

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/comictools/pkg/document"
)

// DrawLayer renders text layer l onto dst, which is in canvas coordinates.
// Output is clipped to the layer box. Non-text layers are ignored.
func DrawLayer(dst *image.NRGBA, l *document.Layer, c color.Color) error {
	if !l.IsText() || l.Text == nil || l.Text.Text == "" {
		return nil
	}
	p := l.Text
	f, err := Lookup(p.Font)
	if err != nil {
		return err
	}
	size := p.FontSize
	if size <= 0 {
		size = 12
	}
	face, err := f.Face(size)
	if err != nil {
		return err
	}
	defer face.Close()

	box := l.Bounds().Intersect(dst.Bounds())
	if box.Empty() {
		return nil
	}
	clip := dst.SubImage(box).(*image.NRGBA)

	m := face.Metrics()
	d := font.Drawer{Dst: clip, Src: image.NewUniform(c), Face: face}
	spacing := fixed.Int26_6(p.LetterSpacing * 64)
	lead := m.Height + fixed.Int26_6(p.LineSpacing*64)
	baseline := fixed.I(l.Y) + m.Ascent

	for i, line := range strings.Split(p.Text, "\n") {
		runes := []rune(line)
		indent := fixed.Int26_6(0)
		if i == 0 {
			indent = fixed.Int26_6(p.Indent * 64)
		}
		width := indent + lineWidth(face, runes, spacing)

		x := fixed.I(l.X)
		switch p.Justification {
		case document.JustifyRight:
			x = fixed.I(l.X+l.Width) - width
		case document.JustifyCenter:
			x = fixed.I(l.X) + (fixed.I(l.Width)-width)/2
		}
		d.Dot = fixed.Point26_6{X: x + indent, Y: baseline}
		for j, r := range runes {
			d.DrawString(string(r))
			if j < len(runes)-1 {
				d.Dot.X += spacing
			}
		}
		baseline += lead
	}
	return nil
}

func lineWidth(face font.Face, runes []rune, spacing fixed.Int26_6) fixed.Int26_6 {
	var w fixed.Int26_6
	for _, r := range runes {
		adv, _ := face.GlyphAdvance(r)
		w += adv
	}
	if n := len(runes); n > 1 {
		w += spacing * fixed.Int26_6(n-1)
	}
	return w
}
