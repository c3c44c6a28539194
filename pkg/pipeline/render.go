package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/errors"
	"github.com/matzehuels/comictools/pkg/render"
	"github.com/matzehuels/comictools/pkg/render/tree"
)

// Diagram formats for [RenderTree].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// ValidTreeFormats is the set of supported layer-tree diagram formats.
var ValidTreeFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// TreeOptions configures [RenderTree].
type TreeOptions struct {
	Formats  []string
	Detailed bool

	// Converter turns SVG into PNG and PDF.
	Converter render.Converter
}

// ValidateTreeFormats checks that all formats are valid.
func ValidateTreeFormats(formats []string) error {
	for _, f := range formats {
		if !ValidTreeFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png, pdf)", f)
		}
	}
	return nil
}

// RenderTree draws the layer tree of doc in the requested formats, keyed by
// format. SVG is rendered once and shared by the PNG and PDF conversions.
func RenderTree(ctx context.Context, doc *document.Document, opts TreeOptions) (map[string][]byte, error) {
	if len(opts.Formats) == 0 {
		opts.Formats = []string{FormatSVG}
	}
	if err := ValidateTreeFormats(opts.Formats); err != nil {
		return nil, err
	}

	dot := tree.ToDOT(doc, tree.Options{Detailed: opts.Detailed})
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	for _, format := range opts.Formats {
		if format == FormatDOT {
			artifacts[format] = []byte(dot)
			continue
		}
		if svg == nil {
			var err error
			if svg, err = tree.RenderSVG(ctx, dot); err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
		}

		var data []byte
		var err error
		switch format {
		case FormatSVG:
			data = svg
		case FormatPNG:
			data, err = opts.Converter.ToPNG(ctx, svg, 2.0)
		case FormatPDF:
			data, err = opts.Converter.ToPDF(ctx, svg)
		}
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
