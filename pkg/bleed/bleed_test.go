package bleed

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/matzehuels/comictools/pkg/document"
	errs "github.com/matzehuels/comictools/pkg/errors"
)

// gradient returns a w×h image whose red channel is the column and green
// channel the row, so every pixel identifies its source position.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func newDoc(w, h int, layers ...*document.Layer) *document.Document {
	doc := document.New(w, h)
	for _, l := range layers {
		doc.AddLayer(l)
	}
	return doc
}

func pixelLayer(name string, x, y, w, h int) *document.Layer {
	l := document.NewImageLayer(name, gradient(w, h))
	l.SetOffsets(x, y)
	return l
}

func TestApplyCanvasGrowth(t *testing.T) {
	tests := []struct {
		name string
		m    Margins
	}{
		{"zero", Margins{}},
		{"uniform", Uniform(10)},
		{"left only", Margins{Left: 7}},
		{"asymmetric", Margins{Left: 1, Right: 2, Top: 3, Bottom: 4}},
		{"default", Uniform(DefaultMargin)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(100, 80, pixelLayer("art", 0, 0, 100, 80))
			if err := Apply(context.Background(), doc, tt.m, nil); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			wantW := 100 + tt.m.Left + tt.m.Right
			wantH := 80 + tt.m.Top + tt.m.Bottom
			if doc.Width != wantW || doc.Height != wantH {
				t.Errorf("canvas = %dx%d, want %dx%d", doc.Width, doc.Height, wantW, wantH)
			}
		})
	}
}

func TestApplyFullPageScenario(t *testing.T) {
	doc := newDoc(100, 100, pixelLayer("art", 0, 0, 100, 100))
	if err := Apply(context.Background(), doc, Uniform(10), nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if doc.Width != 120 || doc.Height != 120 {
		t.Fatalf("canvas = %dx%d, want 120x120", doc.Width, doc.Height)
	}
	l := doc.Layers()[0]
	if got, want := l.Bounds(), image.Rect(0, 0, 120, 120); got != want {
		t.Fatalf("layer bounds = %v, want %v", got, want)
	}

	// Original content sits at (10, 10).
	for _, p := range []image.Point{{0, 0}, {50, 50}, {99, 99}, {0, 99}} {
		got := l.PixelAt(p.X+10, p.Y+10)
		if got[0] != uint8(p.X) || got[1] != uint8(p.Y) {
			t.Errorf("content at %v = %v, want R=%d G=%d", p, got, p.X, p.Y)
		}
	}

	// Left margin: canvas column c mirrors content column 10-c.
	for c := 0; c < 10; c++ {
		for _, r := range []int{10, 60, 109} {
			got := l.PixelAt(c, r)
			if got[0] != uint8(10-c) || got[1] != uint8(r-10) {
				t.Errorf("left margin (%d,%d) = %v, want R=%d G=%d", c, r, got, 10-c, r-10)
			}
		}
	}

	// Right margin: canvas column 110+k mirrors content column 98-k.
	for k := 0; k < 10; k++ {
		got := l.PixelAt(110+k, 50)
		if got[0] != uint8(98-k) || got[1] != 40 {
			t.Errorf("right margin col %d = %v, want R=%d G=40", 110+k, got, 98-k)
		}
	}

	// Top margin: canvas row r mirrors canvas row 20-r across the full width.
	for r := 0; r < 10; r++ {
		for _, c := range []int{0, 5, 60, 115, 119} {
			if got, want := l.PixelAt(c, r), l.PixelAt(c, 20-r); got != want {
				t.Errorf("top margin (%d,%d) = %v, want %v", c, r, got, want)
			}
		}
	}

	// Bottom margin: canvas row 110+k mirrors canvas row 108-k.
	for k := 0; k < 10; k++ {
		for _, c := range []int{0, 60, 119} {
			if got, want := l.PixelAt(c, 110+k), l.PixelAt(c, 108-k); got != want {
				t.Errorf("bottom margin (%d,%d) = %v, want %v", c, 110+k, got, want)
			}
		}
	}

	// Corners are fully covered.
	for _, p := range []image.Point{{0, 0}, {119, 0}, {0, 119}, {119, 119}} {
		if got := l.PixelAt(p.X, p.Y); got[3] != 255 {
			t.Errorf("corner %v alpha = %d, want 255", p, got[3])
		}
	}
}

func TestApplyMirrorFormula(t *testing.T) {
	// A layer that only touches the left edge receives only a left strip.
	const m = 6
	doc := newDoc(40, 20, pixelLayer("strip", 0, 0, 20, 20))
	if err := Apply(context.Background(), doc, Margins{Left: m}, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	l := doc.Layers()[0]
	if got, want := l.Bounds(), image.Rect(0, 0, 20+m, 20); got != want {
		t.Fatalf("layer bounds = %v, want %v", got, want)
	}
	for i := 0; i < m; i++ {
		want := uint8((m - 1 - i) + 1)
		if got := l.PixelAt(i, 3); got[0] != want {
			t.Errorf("output column %d = R%d, want source column %d", i, got[0], want)
		}
	}
}

func TestApplyInteriorLayerUnchanged(t *testing.T) {
	src := gradient(20, 20)
	inner := document.NewImageLayer("inner", src)
	inner.SetOffsets(40, 40)
	doc := newDoc(100, 100, inner)

	if err := Apply(context.Background(), doc, Uniform(10), nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, want := inner.Bounds(), image.Rect(50, 50, 70, 70); got != want {
		t.Fatalf("bounds = %v, want %v", got, want)
	}
	for i := range src.Pix {
		if inner.Pixels.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel data changed at byte %d", i)
		}
	}
}

func TestApplyFlushWithNewEdge(t *testing.T) {
	tests := []struct {
		name      string
		x         int
		m         Margins
		wantBound image.Rectangle
	}{
		{
			// No left margin: the layer stays flush with the canvas edge.
			name:      "no left margin",
			x:         0,
			m:         Margins{Right: 5},
			wantBound: image.Rect(0, 0, 50, 30),
		},
		{
			// The layer starts left of the canvas and lands exactly on x=0.
			name:      "lands on edge",
			x:         -10,
			m:         Margins{Left: 10},
			wantBound: image.Rect(0, 0, 50, 30),
		},
		{
			// Shifted to x=left, within range, so it is extended.
			name:      "extended",
			x:         0,
			m:         Margins{Left: 10},
			wantBound: image.Rect(0, 0, 60, 30),
		},
		{
			// Beyond the bleed distance: moved but not extended.
			name:      "too far",
			x:         3,
			m:         Margins{Left: 2},
			wantBound: image.Rect(5, 0, 55, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := pixelLayer("art", tt.x, 0, 50, 30)
			doc := newDoc(200, 30, l)
			if err := Apply(context.Background(), doc, tt.m, nil); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got := l.Bounds(); got != tt.wantBound {
				t.Errorf("bounds = %v, want %v", got, tt.wantBound)
			}
		})
	}
}

func TestApplyNotIdempotent(t *testing.T) {
	once := newDoc(60, 60, pixelLayer("art", 0, 0, 60, 60))
	twice := newDoc(60, 60, pixelLayer("art", 0, 0, 60, 60))
	ctx := context.Background()

	if err := Apply(ctx, once, Uniform(5), nil); err != nil {
		t.Fatalf("Apply once: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := Apply(ctx, twice, Uniform(5), nil); err != nil {
			t.Fatalf("Apply twice (%d): %v", i, err)
		}
	}

	if once.Width == twice.Width || once.Height == twice.Height {
		t.Errorf("canvas sizes should diverge: once %dx%d, twice %dx%d",
			once.Width, once.Height, twice.Width, twice.Height)
	}

	// The second run mirrors the first run's margin, so the outermost column
	// of the double bleed is the first run's mirrored content, not the
	// original's.
	a := once.Layers()[0].PixelAt(0, 30)
	b := twice.Layers()[0].PixelAt(0, 35)
	if a == b {
		t.Errorf("outermost pixel should differ between one and two runs, both %v", a)
	}
}

func TestApplyTextLayerMovedOnly(t *testing.T) {
	text := document.NewTextLayer("caption", document.TextProps{Text: "BOOM", FontSize: 12}, 40, 20)
	doc := newDoc(100, 100, text)

	if err := Apply(context.Background(), doc, Margins{Left: 8, Top: 4}, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, want := text.Bounds(), image.Rect(8, 4, 48, 24); got != want {
		t.Errorf("text bounds = %v, want %v", got, want)
	}
	if text.Pixels != nil {
		t.Error("text layer should not gain pixels")
	}
}

func TestApplyRecursesIntoGroups(t *testing.T) {
	edge := pixelLayer("edge", 0, 0, 30, 30)
	inner := pixelLayer("inner", 40, 40, 10, 10)
	nested := document.NewGroup("nested")
	nested.Children = []*document.Layer{inner}
	group := document.NewGroup("panel")
	group.Children = []*document.Layer{edge, nested}
	doc := newDoc(100, 100, group)

	if err := Apply(context.Background(), doc, Uniform(5), nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, want := edge.Bounds(), image.Rect(0, 0, 35, 35); got != want {
		t.Errorf("edge bounds = %v, want %v", got, want)
	}
	if got, want := inner.Bounds(), image.Rect(45, 45, 55, 55); got != want {
		t.Errorf("inner bounds = %v, want %v", got, want)
	}
}

func TestApplyGuides(t *testing.T) {
	doc := newDoc(100, 100, pixelLayer("art", 20, 20, 10, 10))
	doc.AddHGuide(5)
	doc.AddHGuide(5)
	doc.AddVGuide(30)
	doc.AddHGuide(50)

	m := Margins{Left: 10, Top: 20}
	if err := Apply(context.Background(), doc, m, nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	type g struct {
		o   document.Orientation
		pos int
	}
	var got []g
	for _, guide := range doc.Guides() {
		got = append(got, g{guide.Orientation, guide.Position})
	}
	want := []g{
		{document.Horizontal, 25},
		{document.Vertical, 40},
		{document.Horizontal, 70},
		{document.Horizontal, 20}, // trim line, top
		{document.Vertical, 10},   // trim line, left
	}
	if len(got) != len(want) {
		t.Fatalf("guides = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("guide %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestApplyTrimGuidesUseNewCanvas(t *testing.T) {
	doc := newDoc(100, 50, pixelLayer("art", 0, 0, 100, 50))
	if err := Apply(context.Background(), doc, Uniform(10), nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := map[document.Orientation][]int{
		document.Horizontal: {10, 60},
		document.Vertical:   {10, 110},
	}
	got := map[document.Orientation][]int{}
	for _, g := range doc.Guides() {
		got[g.Orientation] = append(got[g.Orientation], g.Position)
	}
	for o, positions := range want {
		if len(got[o]) != len(positions) {
			t.Fatalf("%s guides = %v, want %v", o, got[o], positions)
		}
		for i := range positions {
			if got[o][i] != positions[i] {
				t.Errorf("%s guide %d = %d, want %d", o, i, got[o][i], positions[i])
			}
		}
	}
}

func TestApplyRejectsInvalidMargins(t *testing.T) {
	tests := []struct {
		name string
		m    Margins
	}{
		{"negative left", Margins{Left: -1}},
		{"negative bottom", Margins{Bottom: -4}},
		{"max int", Margins{Left: math.MaxInt}},
		{"near max int", Margins{Left: math.MaxInt - 5}},
		{"side too large", Margins{Right: errs.MaxCanvasSize + 1}},
		{"grown width too large", Margins{Left: errs.MaxCanvasSize - 5, Right: 10}},
		{"grown area too large", Uniform(errs.MaxCanvasSize/2 - 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc(10, 10, pixelLayer("art", 0, 0, 10, 10))
			err := Apply(context.Background(), doc, tt.m, nil)
			if !errs.Is(err, errs.ErrCodeInvalidMargins) {
				t.Fatalf("err = %v, want %s", err, errs.ErrCodeInvalidMargins)
			}
			if doc.Width != 10 || doc.Height != 10 || len(doc.UndoNames()) != 0 {
				t.Errorf("document should be untouched, canvas %dx%d", doc.Width, doc.Height)
			}
		})
	}
}

func TestMarginsValidateFor(t *testing.T) {
	tests := []struct {
		name          string
		m             Margins
		width, height int
		wantErr       bool
	}{
		{"default margins", Uniform(DefaultMargin), 2480, 3508, false},
		{"up to the side limit", Margins{Left: 10}, errs.MaxCanvasSize - 10, 100, false},
		{"one past the side limit", Margins{Left: 11}, errs.MaxCanvasSize - 10, 100, true},
		{"canvas already too wide", Margins{}, errs.MaxCanvasSize + 1, 100, true},
		{"area limit", Uniform(1), 16384, 16384, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.ValidateFor(tt.width, tt.height)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errs.Is(err, errs.ErrCodeInvalidMargins) {
				t.Errorf("code = %v, want %v", errs.GetCode(err), errs.ErrCodeInvalidMargins)
			}
		})
	}
}

func TestApplyFailureClosesTransaction(t *testing.T) {
	doc := newDoc(10, 10, pixelLayer("art", 0, 0, 10, 10))
	p := &recordingProgress{}
	doc.SetProgress(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Apply(ctx, doc, Uniform(2), nil)
	if !errs.Is(err, errs.ErrCodeOperationFailed) {
		t.Fatalf("err = %v, want %s", err, errs.ErrCodeOperationFailed)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err should wrap context.Canceled: %v", err)
	}
	if p.inits != 1 || p.ends != 1 {
		t.Errorf("progress init/end = %d/%d, want 1/1", p.inits, p.ends)
	}
	if names := doc.UndoNames(); len(names) != 1 || names[0] != TransactionName {
		t.Errorf("undo history = %v, want [%s]", names, TransactionName)
	}
	if err := doc.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if doc.Width != 10 || doc.Height != 10 {
		t.Errorf("after undo canvas = %dx%d, want 10x10", doc.Width, doc.Height)
	}
}

func TestApplySingleUndoStep(t *testing.T) {
	l := pixelLayer("art", 0, 0, 30, 30)
	doc := newDoc(30, 30, l)
	doc.AddVGuide(15)

	if err := Apply(context.Background(), doc, Uniform(4), nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := len(doc.UndoNames()); n != 1 {
		t.Fatalf("undo steps = %d, want 1", n)
	}
	if err := doc.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if doc.Width != 30 || doc.Height != 30 {
		t.Errorf("canvas = %dx%d, want 30x30", doc.Width, doc.Height)
	}
	restored := doc.Layers()[0]
	if got, want := restored.Bounds(), image.Rect(0, 0, 30, 30); got != want {
		t.Errorf("layer bounds = %v, want %v", got, want)
	}
	if g := doc.Guides(); len(g) != 1 || g[0].Position != 15 {
		t.Errorf("guides = %v, want one at 15", g)
	}
}

func TestEdgeMargins(t *testing.T) {
	m := Uniform(10)
	tests := []struct {
		name       string
		x, y, w, h int
		want       Margins
	}{
		{"interior", 30, 30, 20, 20, Margins{}},
		{"all sides", 10, 10, 100, 100, Uniform(10)},
		{"flush left", 0, 30, 20, 20, Margins{}},
		{"near left", 4, 30, 20, 20, Margins{Left: 4}},
		{"flush right", 100, 30, 20, 20, Margins{}},
		{"near right", 95, 30, 20, 20, Margins{Right: 5}},
		{"near bottom", 30, 100, 20, 15, Margins{Bottom: 5}},
		{"near top", 30, 1, 20, 20, Margins{Top: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := edgeMargins(tt.x, tt.y, tt.w, tt.h, 120, 120, m)
			if got != tt.want {
				t.Errorf("edgeMargins() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCopyMoveAndFlipClamps(t *testing.T) {
	l := pixelLayer("art", 0, 0, 10, 10)
	doc := newDoc(10, 10, l)

	// Starts two columns left of the canvas: the two missing columns are
	// trimmed and the destination shifts right by the same amount.
	if err := copyMoveAndFlip(doc, l, -2, 0, 4, 1, 4, 5, document.Horizontal); err != nil {
		t.Fatalf("copyMoveAndFlip: %v", err)
	}
	// Source columns 0..1 of row 0, flipped, land at (6,5) and (7,5).
	if got := l.PixelAt(6, 5); got[0] != 1 || got[1] != 0 {
		t.Errorf("pixel (6,5) = %v, want R1 G0", got)
	}
	if got := l.PixelAt(7, 5); got[0] != 0 || got[1] != 0 {
		t.Errorf("pixel (7,5) = %v, want R0 G0", got)
	}

	before := append([]uint8(nil), l.Pixels.Pix...)
	for _, r := range []image.Rectangle{
		image.Rect(-5, 0, -1, 4), // entirely left of the canvas
		image.Rect(10, 0, 14, 4), // entirely right of the canvas
		image.Rect(0, 20, 4, 24), // below the canvas
	} {
		if err := copyMoveAndFlip(doc, l, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), 0, 0, document.Vertical); err != nil {
			t.Fatalf("copyMoveAndFlip(%v): %v", r, err)
		}
	}
	for i := range before {
		if before[i] != l.Pixels.Pix[i] {
			t.Fatal("zero-area copy should not change the layer")
		}
	}
}

type recordingProgress struct {
	inits, updates, ends int
}

func (p *recordingProgress) Init(string)    { p.inits++ }
func (p *recordingProgress) Update(float64) { p.updates++ }
func (p *recordingProgress) End()           { p.ends++ }
