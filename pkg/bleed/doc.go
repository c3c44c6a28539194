// Package bleed adds a mirrored bleed margin around a layered document.
//
// Print pages are trimmed after printing, so artwork has to extend past the
// trim line. [Apply] grows the canvas by the requested margins and, for every
// pixel layer that reaches (or nearly reaches) a canvas edge, fills the new
// margin with a mirror image of the pixels just inside that edge. Text
// layers are only moved; groups are walked recursively.
//
// # Margin rules
//
// After the canvas grows and a layer moves by (+left, +top), the layer gets
// a mirrored extension on a side when its edge lies within that side's bleed
// distance of the new canvas edge without touching it:
//
//	left:   0 < x <= left                      → extend by x
//	right:  x+w >= W-right  and  x+w < W       → extend by W-(x+w)
//	top:    0 < y <= top                       → extend by y
//	bottom: y+h >= H-bottom and  y+h < H       → extend by H-(y+h)
//
// Each extension is a flipped copy of the strip one pixel inside the edge,
// so the edge pixel itself is not doubled.
//
// # Guides
//
// Existing guides shift with the content. Guides that land on the same
// position collapse into one. A guide is then added on every trim line whose
// margin is non-zero.
//
// # Example
//
//	doc := document.New(100, 100)
//	doc.AddLayer(document.NewImageLayer("Art", art))
//	if err := bleed.Apply(ctx, doc, bleed.Uniform(10), nil); err != nil {
//	    return err
//	}
//	// doc is now 120×120
package bleed
