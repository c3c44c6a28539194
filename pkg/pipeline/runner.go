package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comictools/pkg/bleed"
	"github.com/matzehuels/comictools/pkg/cache"
	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/errors"
	pkgio "github.com/matzehuels/comictools/pkg/io"
	"github.com/matzehuels/comictools/pkg/observability"
	"github.com/matzehuels/comictools/pkg/ocr"
	"github.com/matzehuels/comictools/pkg/upscale"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store documents. Multiple goroutines can safely use the same Runner on
// different documents.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// OCRTTL and UpscaleTTL override the cache defaults when non-zero.
	OCRTTL     time.Duration
	UpscaleTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute decodes opts.Input, runs opts.Operation and encodes the result.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	loadStart := time.Now()
	doc, inFormat, err := pkgio.Decode(opts.Input)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "load document")
	}
	loadTime := time.Since(loadStart)
	if opts.Progress != nil {
		doc.SetProgress(opts.Progress)
	}

	stats, err := r.Run(ctx, doc, opts)
	if err != nil {
		return nil, err
	}
	stats.LoadTime = loadTime

	format := opts.Format
	if format == "" {
		format = inFormat
	}
	saveStart := time.Now()
	var buf bytes.Buffer
	if err := pkgio.Encode(&buf, doc, format); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", format)
	}
	stats.SaveTime = time.Since(saveStart)

	r.Logger.Debug("encoded output", "format", format, "bytes", buf.Len(), "duration", stats.SaveTime)
	return &Result{Document: doc, Output: buf.Bytes(), Format: format, Stats: stats}, nil
}

// Run applies opts.Operation to a loaded document.
func (r *Runner) Run(ctx context.Context, doc *document.Document, opts Options) (Stats, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Stats{}, err
	}
	switch opts.Operation {
	case OpBleed:
		return r.Bleed(ctx, doc, opts)
	case OpOCR:
		return r.OCR(ctx, doc, opts)
	default:
		return r.Upscale(ctx, doc, opts)
	}
}

// Bleed adds mirrored bleed margins to doc.
func (r *Runner) Bleed(ctx context.Context, doc *document.Document, opts Options) (Stats, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBleed(); err != nil {
		return Stats{}, err
	}

	return r.observe(ctx, OpBleed, doc, func(s *Stats) error {
		if err := bleed.Apply(ctx, doc, opts.Margins, opts.Logger); err != nil {
			return err
		}
		opts.Logger.Info("added bleed",
			"left", opts.Margins.Left, "right", opts.Margins.Right,
			"top", opts.Margins.Top, "bottom", opts.Margins.Bottom,
			"canvas", [2]int{doc.Width, doc.Height})
		return nil
	})
}

// OCR recognises the text under opts.Select in opts.Layer.
func (r *Runner) OCR(ctx context.Context, doc *document.Document, opts Options) (Stats, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForOCR(); err != nil {
		return Stats{}, err
	}
	mode, _ := ocr.ParseMode(opts.modeOrAuto())

	layer, err := findInputLayer(doc, opts.Layer)
	if err != nil {
		return Stats{}, err
	}
	if len(opts.Select) > 0 {
		doc.SelectNone()
		for _, reg := range opts.Select {
			doc.SelectRectangle(document.OpAdd, reg.X, reg.Y, reg.W, reg.H)
		}
	}

	return r.observe(ctx, OpOCR, doc, func(s *Stats) error {
		res, err := ocr.Apply(ctx, doc, layer, ocr.Options{
			Font:       opts.Font,
			GroupName:  opts.Group,
			LineByLine: opts.LineByLine,
			Mode:       mode,
			Engine:     opts.OCREngine,
			Languages:  opts.Languages,
			Cache:      r.Cache,
			Keyer:      r.Keyer,
			TTL:        r.OCRTTL,
			Logger:     opts.Logger,
		})
		if err != nil {
			return err
		}
		s.Islands, s.TextLayers, s.CacheHits = res.Islands, res.TextLayers, res.CacheHits
		opts.Logger.Info("recognised text", "layer", layer.Name, "islands", res.Islands, "text_layers", res.TextLayers)
		return nil
	})
}

// Upscale enlarges every layer of doc by opts.Scale.
func (r *Runner) Upscale(ctx context.Context, doc *document.Document, opts Options) (Stats, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForUpscale(); err != nil {
		return Stats{}, err
	}

	return r.observe(ctx, OpUpscale, doc, func(s *Stats) error {
		res, err := upscale.Apply(ctx, doc, upscale.Options{
			Scale:  opts.Scale,
			Engine: opts.UpscaleEngine,
			Cache:  r.Cache,
			Keyer:  r.Keyer,
			TTL:    r.UpscaleTTL,
			Logger: opts.Logger,
		})
		if err != nil {
			return err
		}
		s.PixelLayers, s.TextLayers, s.CacheHits = res.PixelLayers, res.TextLayers, res.CacheHits
		opts.Logger.Info("upscaled document", "scale", opts.Scale, "canvas", [2]int{doc.Width, doc.Height})
		return nil
	})
}

// observe wraps an operation with observability hooks and timing.
func (r *Runner) observe(ctx context.Context, op string, doc *document.Document, fn func(*Stats) error) (Stats, error) {
	hooks := observability.Operation()
	hooks.OnOperationStart(ctx, op)
	start := time.Now()

	stats := Stats{Operation: op}
	err := fn(&stats)
	stats.RunTime = time.Since(start)
	stats.Width, stats.Height = doc.Width, doc.Height

	hooks.OnOperationComplete(ctx, op, stats.RunTime, err)
	return stats, err
}

// findInputLayer returns the pixel layer called name, or the top-most pixel
// layer when name is empty.
func findInputLayer(doc *document.Document, name string) (*document.Layer, error) {
	if name != "" {
		l, ok := doc.LayerByName(name)
		if !ok {
			return nil, errors.New(errors.ErrCodeLayerNotFound, "no layer named %q", name)
		}
		return l, nil
	}
	var found *document.Layer
	doc.Walk(func(l *document.Layer, _ int) bool {
		if l.Kind == document.KindPixel {
			found = l
			return false
		}
		return true
	})
	if found == nil {
		return nil, errors.New(errors.ErrCodeLayerNotFound, "document has no pixel layer")
	}
	return found, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
