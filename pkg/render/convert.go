package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/comictools/pkg/errors"
	"github.com/matzehuels/comictools/pkg/tool"
)

// DefaultRSVGConvert is the rsvg-convert executable looked up in PATH.
const DefaultRSVGConvert = "rsvg-convert"

// Converter converts SVG with a given rsvg-convert executable.
type Converter struct {
	Path string
}

// ToPDF converts SVG bytes to PDF.
func (c Converter) ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return c.convert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG at the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
func (c Converter) ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return c.convert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func (c Converter) convert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	path := c.Path
	if path == "" {
		path = DefaultRSVGConvert
	}
	exe, err := tool.Resolve(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolNotFound, err,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	return tool.Run(ctx, tool.Cmd{Path: exe, Args: args, Stdin: bytes.NewReader(svg)})
}

// ToPDF converts SVG bytes to PDF using rsvg-convert from PATH.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return Converter{}.ToPDF(ctx, svg)
}

// ToPNG converts SVG bytes to PNG using rsvg-convert from PATH.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return Converter{}.ToPNG(ctx, svg, scale)
}
