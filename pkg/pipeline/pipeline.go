// Package pipeline runs comictools operations end to end.
//
// This package implements the load → operate → save pipeline shared by the
// CLI and the HTTP server. By centralizing this logic, both entry points
// validate options, report progress, hit the cache and emit observability
// events the same way.
//
// # Operations
//
//  1. Bleed: grow the canvas and mirror edge pixels into the margins
//  2. OCR: replace lettering with editable, fitted text layers
//  3. Upscale: enlarge pixel layers through an upscaling engine
//
// Each operation can run on an already loaded document or as part of
// [Runner.Execute], which decodes the input (document JSON or PNG) and
// encodes the result in the requested format.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Operation: pipeline.OpBleed,
//	    Input:     data,
//	    Margins:   bleed.Uniform(43),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("page.json", result.Output, 0o644)
//
// Run a single operation on a loaded document:
//
//	stats, err := runner.Upscale(ctx, doc, pipeline.Options{Scale: 2})
package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comictools/pkg/bleed"
	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/errors"
	pkgio "github.com/matzehuels/comictools/pkg/io"
	"github.com/matzehuels/comictools/pkg/ocr"
	"github.com/matzehuels/comictools/pkg/upscale"
)

// Operation names.
const (
	OpBleed   = "bleed"
	OpOCR     = "ocr"
	OpUpscale = "upscale"
)

// ValidOperations is the set of supported operations.
var ValidOperations = map[string]bool{
	OpBleed:   true,
	OpOCR:     true,
	OpUpscale: true,
}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[pkgio.Format]bool{
	pkgio.FormatJSON: true,
	pkgio.FormatPNG:  true,
}

// Region is a rectangle in canvas pixels.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// ParseRegion parses "x,y,w,h".
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, errors.New(errors.ErrCodeInvalidInput, "region %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "region %q", s)
		}
		v[i] = n
	}
	r := Region{X: v[0], Y: v[1], W: v[2], H: v[3]}
	if r.W <= 0 || r.H <= 0 {
		return Region{}, errors.New(errors.ErrCodeInvalidInput, "region %q: width and height must be > 0", s)
	}
	return r, nil
}

func (r Region) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.W, r.H)
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Operation string `json:"operation"`

	// Input is the document JSON or PNG to load in [Runner.Execute].
	Input []byte `json:"-"`

	// Format is the output format; empty keeps the input format.
	Format pkgio.Format `json:"format,omitempty"`

	// Bleed options
	Margins bleed.Margins `json:"margins"`

	// OCR options
	Layer      string   `json:"layer,omitempty"` // empty selects the top-most pixel layer
	Select     []Region `json:"select,omitempty"`
	Font       string   `json:"font,omitempty"`
	Group      string   `json:"group,omitempty"`
	LineByLine bool     `json:"line_by_line,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Languages  []string `json:"languages,omitempty"`

	// Upscale options
	Scale int `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger        *log.Logger       `json:"-"`
	Progress      document.Progress `json:"-"`
	OCREngine     ocr.Engine        `json:"-"`
	UpscaleEngine upscale.Engine    `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the transformed document.
	Document *document.Document

	// Output is the encoded document in Format.
	Output []byte
	Format pkgio.Format

	Stats Stats
}

// Stats contains execution statistics.
type Stats struct {
	Operation string
	Width     int
	Height    int

	PixelLayers int
	TextLayers  int
	Islands     int
	CacheHits   int

	LoadTime time.Duration
	RunTime  time.Duration
	SaveTime time.Duration
}

// ValidateOperation checks that an operation name is valid.
func ValidateOperation(op string) error {
	if !ValidOperations[op] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid operation: %q (must be one of: bleed, ocr, upscale)", op)
	}
	return nil
}

// ValidateFormat checks that an output format is valid. Empty is allowed.
func ValidateFormat(f pkgio.Format) error {
	if f != "" && !ValidFormats[f] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, png)", f)
	}
	return nil
}

// ValidateAndSetDefaults checks the options of the selected operation and
// applies defaults. Calling it again has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := ValidateOperation(o.Operation); err != nil {
		return err
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	var err error
	switch o.Operation {
	case OpBleed:
		err = o.ValidateForBleed()
	case OpOCR:
		err = o.ValidateForOCR()
	case OpUpscale:
		err = o.ValidateForUpscale()
	}
	if err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBleed rejects negative margins.
func (o *Options) ValidateForBleed() error {
	o.setCommonDefaults()
	return o.Margins.Validate()
}

// ValidateForOCR checks the mode and selection and applies OCR defaults.
func (o *Options) ValidateForOCR() error {
	o.setCommonDefaults()
	if _, err := ocr.ParseMode(o.modeOrAuto()); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid mode")
	}
	for _, r := range o.Select {
		if r.W <= 0 || r.H <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "region %s: width and height must be > 0", r)
		}
	}
	if o.Group == "" {
		o.Group = ocr.DefaultGroupName
	}
	if err := errors.ValidateLayerName(o.Group); err != nil {
		return err
	}
	if o.Layer != "" {
		return errors.ValidateLayerName(o.Layer)
	}
	return nil
}

// ValidateForUpscale checks the scale, defaulting it to upscale.DefaultScale.
func (o *Options) ValidateForUpscale() error {
	o.setCommonDefaults()
	if o.Scale == 0 {
		o.Scale = upscale.DefaultScale
	}
	return errors.ValidateScale(o.Scale)
}

func (o *Options) setCommonDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

func (o *Options) modeOrAuto() string {
	if o.Mode == "" {
		return ocr.ModeAuto.String()
	}
	return o.Mode
}
