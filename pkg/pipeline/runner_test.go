package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/comictools/pkg/bleed"
	"github.com/matzehuels/comictools/pkg/cache"
	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/errors"
	pkgio "github.com/matzehuels/comictools/pkg/io"
	"github.com/matzehuels/comictools/pkg/observability"
	"github.com/matzehuels/comictools/pkg/ocr"
	"github.com/matzehuels/comictools/pkg/upscale"
)

type opEvent struct {
	op  string
	err error
}

type recordingHooks struct {
	mu     sync.Mutex
	starts []string
	ends   []opEvent
}

func (h *recordingHooks) OnOperationStart(_ context.Context, op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts = append(h.starts, op)
}

func (h *recordingHooks) OnOperationComplete(_ context.Context, op string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ends = append(h.ends, opEvent{op, err})
}

func pagePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExecuteBleedPNG(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetOperationHooks(hooks)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Operation: OpBleed,
		Input:     pagePNG(t, 20, 10),
		Margins:   bleed.Uniform(3),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Format != pkgio.FormatPNG {
		t.Errorf("format = %q, want png", res.Format)
	}
	img, err := png.Decode(bytes.NewReader(res.Output))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(26, 16) {
		t.Errorf("output size = %v, want (26,16)", got)
	}
	// Column 0 mirrors source column 2 around the old edge.
	if r0, _, _, _ := img.At(0, 5).RGBA(); r0>>8 != 30 {
		t.Errorf("mirrored red = %d, want 30", r0>>8)
	}
	if res.Stats.Operation != OpBleed || res.Stats.Width != 26 || res.Stats.Height != 16 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(hooks.starts) != 1 || hooks.starts[0] != OpBleed || len(hooks.ends) != 1 || hooks.ends[0].err != nil {
		t.Errorf("hooks = %v / %v", hooks.starts, hooks.ends)
	}
}

func TestExecuteFormatConversion(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Operation: OpBleed,
		Input:     pagePNG(t, 8, 8),
		Margins:   bleed.Uniform(2),
		Format:    pkgio.FormatJSON,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	doc, format, err := pkgio.Decode(res.Output)
	if err != nil || format != pkgio.FormatJSON {
		t.Fatalf("Decode: %v (format %q)", err, format)
	}
	if doc.Width != 12 || len(doc.Guides()) != 4 {
		t.Errorf("doc = %dx%d with %d guides", doc.Width, doc.Height, len(doc.Guides()))
	}
}

func TestExecuteRejects(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"garbage input", Options{Operation: OpBleed, Input: []byte("not a document")}, errors.ErrCodeInvalidFormat},
		{"bad scale", Options{Operation: OpUpscale, Scale: 9, Input: pagePNG(t, 2, 2)}, errors.ErrCodeInvalidScale},
		{"missing layer", Options{Operation: OpOCR, Layer: "Inks", Input: pagePNG(t, 2, 2)}, errors.ErrCodeLayerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Execute(context.Background(), tt.opts); !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

type stubOCR struct{ calls int }

func (s *stubOCR) Name() string { return "stub" }
func (s *stubOCR) Check() error { return nil }
func (s *stubOCR) Recognize(context.Context, []byte, []string) ([]byte, error) {
	s.calls++
	return []byte(fmt.Sprintf(`<alto xmlns=%q><Layout><Page><PrintSpace>
<ComposedBlock HPOS="2" VPOS="2" WIDTH="30" HEIGHT="10"><TextBlock>
<TextLine HPOS="2" VPOS="2" WIDTH="30" HEIGHT="10"><String HPOS="2" VPOS="2" WIDTH="30" HEIGHT="10" CONTENT="POW"/></TextLine>
</TextBlock></ComposedBlock></PrintSpace></Page></Layout></alto>`, ocr.ALTONamespace)), nil
}

func TestRunnerOCR(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()
	eng := &stubOCR{}

	for i, wantHits := range []int{0, 1} {
		doc, _, err := pkgio.Decode(pagePNG(t, 60, 40))
		if err != nil {
			t.Fatal(err)
		}
		stats, err := r.OCR(context.Background(), doc, Options{
			Select:    []Region{{X: 5, Y: 5, W: 50, H: 30}},
			OCREngine: eng,
		})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if stats.Islands != 1 || stats.TextLayers != 1 || stats.CacheHits != wantHits {
			t.Errorf("run %d: stats = %+v", i, stats)
		}
		group, ok := doc.LayerByName(ocr.DefaultGroupName)
		if !ok || !group.IsGroup() {
			t.Fatalf("run %d: no output group", i)
		}
		if l := group.ChildList()[0]; !l.IsText() || l.Text.Text != "POW" {
			t.Errorf("run %d: first child = %q", i, l.Name)
		}
	}
	if eng.calls != 1 {
		t.Errorf("engine calls = %d, want 1 (second run cached)", eng.calls)
	}
}

func TestRunnerOCRNeedsSelection(t *testing.T) {
	doc, _, err := pkgio.Decode(pagePNG(t, 10, 10))
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewRunner(nil, nil, nil).OCR(context.Background(), doc, Options{OCREngine: &stubOCR{}})
	if !errors.Is(err, errors.ErrCodeNothingSelect) {
		t.Errorf("err = %v, want NOTHING_SELECTED", err)
	}
}

func TestRunnerUpscale(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetOperationHooks(hooks)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Operation:     OpUpscale,
		Input:         pagePNG(t, 5, 4),
		Scale:         2,
		UpscaleEngine: upscale.NearestEngine{},
		Format:        pkgio.FormatJSON,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Document.Width != 10 || res.Document.Height != 8 {
		t.Errorf("canvas = %dx%d, want 10x8", res.Document.Width, res.Document.Height)
	}
	if res.Stats.PixelLayers != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(hooks.ends) != 1 || hooks.ends[0].op != OpUpscale {
		t.Errorf("hooks = %v", hooks.ends)
	}
}

func TestRunnerReportsFailure(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetOperationHooks(hooks)
	defer observability.Reset()

	doc := document.New(4, 4)
	doc.AddLayer(document.NewPixelLayer("Page", 4, 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(nil, nil, nil).Bleed(ctx, doc, Options{Margins: bleed.Uniform(1)})
	if !errors.Is(err, errors.ErrCodeOperationFailed) {
		t.Fatalf("err = %v, want OPERATION_FAILED", err)
	}
	if len(hooks.ends) != 1 || hooks.ends[0].err == nil {
		t.Errorf("completion hook = %v, want error", hooks.ends)
	}
}

func TestRenderTree(t *testing.T) {
	doc := document.New(10, 10)
	doc.AddLayer(document.NewPixelLayer("Page", 10, 10))

	out, err := RenderTree(context.Background(), doc, TreeOptions{Formats: []string{FormatDOT, FormatSVG}})
	if err != nil {
		t.Fatalf("RenderTree: %v", err)
	}
	if !strings.HasPrefix(string(out[FormatDOT]), "digraph G") {
		t.Errorf("dot = %.40s", out[FormatDOT])
	}
	if !strings.Contains(string(out[FormatSVG]), "<svg") {
		t.Errorf("svg missing")
	}

	if _, err := RenderTree(context.Background(), doc, TreeOptions{Formats: []string{"gif"}}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}
