// Package upscale enlarges every layer of a document by an integer factor.
//
// Pixel layers go through an [Engine] (Real-ESRGAN by default); text layers
// stay editable and have their geometry and type settings multiplied
// instead. The canvas is fitted to the scaled layers at the end.
package upscale

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comictools/pkg/cache"
	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/errors"
	"github.com/matzehuels/comictools/pkg/observability"
)

// TransactionName is the undo-history label of an upscale run.
const TransactionName = "Real-ESRGAN Upscale"

// DefaultScale is the factor used when none is configured.
const DefaultScale = errors.MaxScale

// Options configures [Apply].
type Options struct {
	// Scale is the enlargement factor, between errors.MinScale and
	// errors.MaxScale.
	Scale  int
	Engine Engine

	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration // 0 uses cache.TTLUpscale
	Logger *log.Logger
}

// Stats summarises an upscale run.
type Stats struct {
	PixelLayers int
	TextLayers  int
	CacheHits   int
}

func (o *Options) defaults() {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Engine == nil {
		o.Engine = NewRealESRGAN("", "")
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.TTL <= 0 {
		o.TTL = cache.TTLUpscale
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Apply scales every layer of doc by opts.Scale and fits the canvas to the
// result, in one transaction. The scale and the engine are checked before
// the document is touched.
func Apply(ctx context.Context, doc *document.Document, opts Options) (Stats, error) {
	opts.defaults()
	var stats Stats

	if err := errors.ValidateScale(opts.Scale); err != nil {
		return stats, err
	}
	if err := errors.ValidateCanvasSize(doc.Width*opts.Scale, doc.Height*opts.Scale); err != nil {
		return stats, errors.Wrap(errors.ErrCodeInvalidScale, err, "scale %d", opts.Scale)
	}
	if err := opts.Engine.Check(); err != nil {
		return stats, err
	}

	err := doc.Transaction(TransactionName, func() error {
		doc.SelectNone()
		top := doc.Layers()
		for i, l := range top {
			if err := upscaleLayer(ctx, doc, l, opts, &stats); err != nil {
				return err
			}
			doc.ReportProgress(float64(i+1) / float64(len(top)))
		}
		doc.ResizeToLayers()
		return nil
	})
	if err != nil {
		if errors.GetCode(err) != "" {
			return stats, err
		}
		return stats, errors.Wrap(errors.ErrCodeOperationFailed, err, "unexpected error")
	}
	opts.Logger.Debug("upscale done", "scale", opts.Scale,
		"pixel", stats.PixelLayers, "text", stats.TextLayers, "cached", stats.CacheHits)
	return stats, nil
}

func upscaleLayer(ctx context.Context, doc *document.Document, l *document.Layer, opts Options, stats *Stats) error {
	if l.IsGroup() {
		for _, c := range l.ChildList() {
			if err := upscaleLayer(ctx, doc, c, opts, stats); err != nil {
				return err
			}
		}
		return nil
	}

	s := opts.Scale
	x, y := l.Offsets()
	w, h := l.Width, l.Height

	if l.IsText() {
		ScaleText(l, s)
		stats.TextLayers++
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if w == 0 || h == 0 {
		l.SetOffsets(x*s, y*s)
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, l.Pixels); err != nil {
		return err
	}
	out, hit, err := upscale(ctx, buf.Bytes(), opts)
	if err != nil {
		return err
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return errors.Wrap(errors.ErrCodeToolFailed, err, "%s output", opts.Engine.Name())
	}
	opts.Logger.Debug("upscaled layer", "layer", l.Name, "from", [2]int{w, h}, "to", img.Bounds().Size(), "cached", hit)

	l.Resize(w*s, h*s, 0, 0)
	l.SetOffsets(x*s, y*s)
	l.Clear()

	doc.SetClipboard(img)
	f, err := doc.Paste(l)
	if err != nil {
		return err
	}
	f.SetOffsets(x*s, y*s)
	if err := f.Anchor(); err != nil {
		return err
	}

	stats.PixelLayers++
	if hit {
		stats.CacheHits++
	}
	return nil
}

// ScaleText multiplies a text layer's box, offsets and type settings by s.
func ScaleText(l *document.Layer, s int) {
	x, y := l.Offsets()
	l.SetOffsets(x*s, y*s)
	l.Resize(l.Width*s, l.Height*s, 0, 0)

	t := l.Text
	if t == nil {
		return
	}
	fs := float64(s)
	t.FontSize *= fs
	t.Indent *= fs
	t.LineSpacing *= fs
	t.LetterSpacing *= fs
}

// upscale runs the engine, going through the result cache.
func upscale(ctx context.Context, src []byte, opts Options) ([]byte, bool, error) {
	key := opts.Keyer.UpscaleKey(cache.Hash(src), cache.UpscaleKeyOpts{
		Engine: opts.Engine.Name(),
		Model:  opts.Engine.Model(),
		Scale:  opts.Scale,
	})
	hooks := observability.Cache()

	if data, ok, err := opts.Cache.Get(ctx, key); err != nil {
		opts.Logger.Warn("cache read failed", "err", err)
	} else if ok {
		hooks.OnCacheHit(ctx, "upscale")
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, "upscale")

	data, err := opts.Engine.Upscale(ctx, src, opts.Scale)
	if err != nil {
		return nil, false, err
	}
	if err := opts.Cache.Set(ctx, key, data, opts.TTL); err != nil {
		opts.Logger.Warn("cache write failed", "err", err)
	} else {
		hooks.OnCacheSet(ctx, "upscale", len(data))
	}
	return data, false, nil
}
