package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comictools/pkg/cache"
	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/errors"
	"github.com/matzehuels/comictools/pkg/fonts"
	"github.com/matzehuels/comictools/pkg/observability"
)

// TransactionName is the undo-history label of an OCR run.
const TransactionName = "Tesseract OCR"

// BackgroundLayer is the name of the layer inside the output group that
// covers recognised regions.
const BackgroundLayer = "Background"

// DefaultGroupName is the output group used when none is configured.
const DefaultGroupName = "OCR"

// Options configures [Apply].
type Options struct {
	// Font is a built-in font name or a font file path.
	Font string

	// GroupName names the layer group receiving the text layers.
	GroupName string

	// LineByLine creates one text layer per line instead of per block.
	// Ignored when Mode is set.
	LineByLine bool
	Mode       Mode

	Engine    Engine
	Languages []string

	// Background paints over recognised regions; nil means white.
	Background color.Color

	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration // 0 uses cache.TTLOCR
	Logger *log.Logger
}

// Stats summarises an OCR run.
type Stats struct {
	Islands    int
	TextLayers int
	CacheHits  int
}

func (o *Options) defaults() {
	if o.GroupName == "" {
		o.GroupName = DefaultGroupName
	}
	if o.Mode == ModeAuto {
		o.Mode = ModeBlocks
		if o.LineByLine {
			o.Mode = ModeLines
		}
	}
	if o.Engine == nil {
		o.Engine = NewTesseract("")
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Apply recognises the text under every selection island of layer and adds
// fitted text layers to the output group.
//
// The engine, the selection and the layer kind are checked before the
// document is touched. Everything else runs in one transaction: the output
// group and its background layer are created on first use, each island is
// shrunk by one pixel, painted over on the background layer and recognised.
// The selection is cleared afterwards.
func Apply(ctx context.Context, doc *document.Document, layer *document.Layer, opts Options) (Stats, error) {
	opts.defaults()
	var stats Stats

	if err := opts.Engine.Check(); err != nil {
		return stats, err
	}
	if ok, _ := doc.SelectionBounds(); !ok {
		return stats, errors.New(errors.ErrCodeNothingSelect, "nothing selected")
	}
	if layer == nil {
		return stats, errors.New(errors.ErrCodeLayerNotFound, "no input layer")
	}
	if layer.Kind != document.KindPixel {
		return stats, errors.New(errors.ErrCodeInvalidLayer, "OCR can only be performed on bitmap layers, %q is a %s layer", layer.Name, layer.Kind)
	}
	if existing, ok := doc.LayerByName(opts.GroupName); ok && !existing.IsGroup() {
		return stats, errors.New(errors.ErrCodeInvalidLayer, "layer %q exists and is not a group", opts.GroupName)
	}
	f, err := fonts.Lookup(opts.Font)
	if err != nil {
		return stats, errors.Wrap(errors.ErrCodeInvalidInput, err, "font")
	}

	err = doc.Transaction(TransactionName, func() error {
		group, bg, err := outputLayers(doc, opts.GroupName)
		if err != nil {
			return err
		}

		islands := doc.SelectionIslands()
		for i, island := range islands {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, hit, err := recognizeIsland(ctx, doc, layer, bg, group, island, f, opts)
			if err != nil {
				return err
			}
			stats.Islands++
			stats.TextLayers += n
			if hit {
				stats.CacheHits++
			}
			doc.ReportProgress(float64(i+1) / float64(len(islands)))
		}
		doc.SelectNone()
		return nil
	})
	if err != nil {
		if errors.GetCode(err) != "" {
			return stats, err
		}
		return stats, errors.Wrap(errors.ErrCodeOperationFailed, err, "unexpected error")
	}
	opts.Logger.Debug("ocr done", "islands", stats.Islands, "layers", stats.TextLayers, "cached", stats.CacheHits)
	return stats, nil
}

// outputLayers finds or creates the output group (at the top of the stack)
// and its background layer (at the bottom of the group).
func outputLayers(doc *document.Document, name string) (group, bg *document.Layer, err error) {
	group, ok := doc.LayerByName(name)
	if !ok {
		group = document.NewGroup(name)
		if err := doc.InsertLayer(group, nil, 0); err != nil {
			return nil, nil, err
		}
	}
	for _, c := range group.ChildList() {
		if c.Kind == document.KindPixel && c.Name == BackgroundLayer {
			return group, c, nil
		}
	}
	bg = document.NewPixelLayer(BackgroundLayer, doc.Width, doc.Height)
	if err := doc.InsertLayer(bg, group, 0); err != nil {
		return nil, nil, err
	}
	return group, bg, nil
}

func recognizeIsland(ctx context.Context, doc *document.Document, layer, bg, group *document.Layer,
	island image.Rectangle, f *fonts.Font, opts Options) (layers int, hit bool, err error) {
	doc.SelectRectangle(document.OpReplace, island.Min.X, island.Min.Y, island.Dx(), island.Dy())
	doc.ShrinkSelection(1)
	ok, bounds := doc.SelectionBounds()
	if !ok {
		return 0, false, nil
	}
	if err := doc.Copy(layer); err != nil {
		return 0, false, err
	}
	if err := doc.FillSelection(bg, opts.Background); err != nil {
		return 0, false, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, doc.Clipboard()); err != nil {
		return 0, false, err
	}
	data, hit, err := recognize(ctx, buf.Bytes(), opts)
	if err != nil {
		return 0, false, err
	}
	alto, err := ParseALTO(bytes.NewReader(data))
	if err != nil {
		return 0, hit, errors.Wrap(errors.ErrCodeToolFailed, err, "%s output", opts.Engine.Name())
	}

	items := alto.Items(opts.Mode)
	opts.Logger.Debug("recognised island", "bounds", bounds, "items", len(items), "cached", hit)
	for _, it := range items {
		fit, err := FitText(f, it.Text, it.Box.Add(bounds.Min))
		if err != nil {
			return layers, hit, err
		}
		if err := doc.InsertLayer(fit.Layer(), group, 0); err != nil {
			return layers, hit, err
		}
		layers++
	}
	return layers, hit, nil
}

// recognize runs the engine, going through the result cache.
func recognize(ctx context.Context, img []byte, opts Options) ([]byte, bool, error) {
	key := opts.Keyer.OCRKey(cache.Hash(img), cache.OCRKeyOpts{
		Engine:    opts.Engine.Name(),
		Languages: opts.Languages,
	})
	hooks := observability.Cache()

	if data, ok, err := opts.Cache.Get(ctx, key); err != nil {
		opts.Logger.Warn("cache read failed", "err", err)
	} else if ok {
		hooks.OnCacheHit(ctx, "ocr")
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, "ocr")

	data, err := opts.Engine.Recognize(ctx, img, opts.Languages)
	if err != nil {
		return nil, false, err
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.TTLOCR
	}
	if err := opts.Cache.Set(ctx, key, data, ttl); err != nil {
		opts.Logger.Warn("cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, "ocr", len(data))
	}
	return data, false, nil
}
