// Package document provides the layered raster document that every comictools
// operation edits.
//
// # Overview
//
// A [Document] is a canvas (width × height in pixels) holding an ordered tree
// of layers, a set of guides, a rectangular selection, a clipboard and at most
// one floating selection. It exposes the small set of editing primitives the
// bleed, OCR and upscale operations are written against:
//
//   - Canvas: [Document.ResizeCanvas], [Document.ResizeToLayers]
//   - Layers: [Layer.SetOffsets], [Layer.Resize], [Layer.Clear], [Document.InsertLayer]
//   - Selection: [Document.SelectRectangle], [Document.SelectNone], [Document.ShrinkSelection]
//   - Clipboard: [Document.Copy], [Document.Paste], [Floating.Flip], [Floating.Anchor]
//   - Guides: [Document.AddGuide], [Document.DeleteGuide], [Document.Guides]
//   - Undo: [Document.Transaction], [Document.Undo]
//
// # Layer Tree
//
// Layers come in three kinds. Pixel layers own an [image.NRGBA] buffer the
// size of the layer. Text layers carry [TextProps] and a box; they are drawn
// only when a document is flattened. Groups own an ordered list of children
// and have no geometry of their own. The first layer in a list is the top of
// the stack.
//
// # Transactions
//
// Multi-step edits run inside [Document.Transaction], which opens one undo
// group and one progress scope, converts panics from the primitives into
// errors, and always closes both scopes:
//
//	err := doc.Transaction("Add Mirror Bleed", func() error {
//	    doc.ResizeCanvas(doc.Width+20, doc.Height+20, 0, 0)
//	    ...
//	    return nil
//	})
//
// A Document is not safe for concurrent use.
package document
