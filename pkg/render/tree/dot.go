package tree

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/render"
)

const rootID = "canvas"

// Options configures diagram generation.
type Options struct {
	// Detailed adds geometry, text properties and guides to labels.
	// When false, only layer names are shown.
	Detailed bool
}

// ToDOT converts the layer tree of doc to Graphviz DOT source.
func ToDOT(doc *document.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=20, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [label=%q, shape=box3d, fillcolor=lightyellow];\n", rootID, canvasLabel(doc, opts.Detailed))

	var edges []string
	var visit func(parent string, layers []*document.Layer)
	visit = func(parent string, layers []*document.Layer) {
		for _, l := range layers {
			fmt.Fprintf(&buf, "  %q [%s];\n", l.ID, strings.Join(fmtAttrs(l, opts.Detailed), ", "))
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", parent, l.ID))
			if l.IsGroup() {
				visit(l.ID, l.ChildList())
			}
		}
	}
	visit(rootID, doc.Layers())

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func canvasLabel(doc *document.Document, detailed bool) string {
	label := fmt.Sprintf("canvas %dx%d", doc.Width, doc.Height)
	if !detailed {
		return label
	}
	var guides []string
	for _, g := range doc.Guides() {
		guides = append(guides, fmt.Sprintf("%s %d", g.Orientation, g.Position))
	}
	if len(guides) > 0 {
		label += "\nguides: " + strings.Join(guides, ", ")
	}
	return label
}

func fmtLabel(l *document.Layer, detailed bool) string {
	if !detailed {
		return l.Name
	}
	b := l.Bounds()
	parts := []string{fmt.Sprintf("%s (%d,%d) %dx%d", l.Kind, b.Min.X, b.Min.Y, b.Dx(), b.Dy())}
	if l.IsText() && l.Text != nil {
		parts = append(parts, fmt.Sprintf("%s %gpx", l.Text.Font, l.Text.FontSize))
	}
	if l.Opacity < 1 {
		parts = append(parts, fmt.Sprintf("opacity: %.0f%%", l.Opacity*100))
	}
	return l.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(l *document.Layer, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(l, detailed))}
	switch l.Kind {
	case document.KindGroup:
		attrs = append(attrs, "shape=folder", "style=\"filled,dashed\"", "fillcolor=lightgrey")
	case document.KindText:
		attrs = append(attrs, "fontname=\"Helvetica-Oblique\"", "fillcolor=lightblue")
	}
	if !l.Visible {
		attrs = append(attrs, "fontcolor=grey50", "color=grey50")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz svg element, which sizes the
// drawing in points, with one sized in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source as PNG via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
