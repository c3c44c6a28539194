// Package tree draws a document's layer stack as a Graphviz diagram.
//
// The canvas is the root node; every layer hangs below its parent group,
// ordered left to right from the top of the stack. Groups are drawn as
// dashed folders, text layers in italics and pixel layers as plain boxes.
//
//	dot := tree.ToDOT(doc, tree.Options{Detailed: true})
//	svg, err := tree.RenderSVG(ctx, dot)
//
// For PDF or PNG output, pass the SVG to [render.ToPDF] or [render.ToPNG].
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package tree
