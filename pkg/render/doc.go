// Package render turns documents into diagrams and converts SVG output to
// other formats.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg). A [Converter] pins a specific rsvg-convert executable:
//
//	svg, err := tree.RenderSVG(ctx, tree.ToDOT(doc, tree.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// # Layer Trees
//
// The [tree] subpackage draws a document's layer stack as a Graphviz
// diagram, which helps when checking what an OCR or bleed run changed.
package render
