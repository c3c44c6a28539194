package document

import (
	"fmt"
	"image"
)

// Document is a layered canvas. See the package documentation for the
// editing model.
type Document struct {
	Width  int
	Height int

	layers      []*Layer
	guides      []Guide
	nextGuideID int

	selection []image.Rectangle
	clipboard *clip
	floating  *Floating

	progress Progress
	undo     undoState
}

// New creates an empty document of the given size.
func New(w, h int) *Document {
	return &Document{Width: w, Height: h, progress: nopProgress{}}
}

// Bounds returns the canvas rectangle.
func (d *Document) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.Width, d.Height)
}

// Layers returns a snapshot of the top-level layers, topmost first.
func (d *Document) Layers() []*Layer {
	return append([]*Layer(nil), d.layers...)
}

// InsertLayer inserts l into parent (nil for the top level) at position
// index. Index 0 is the top of the stack; an index past the end appends.
func (d *Document) InsertLayer(l *Layer, parent *Layer, index int) error {
	if l == nil {
		return fmt.Errorf("insert layer: nil layer")
	}
	if parent != nil && !parent.IsGroup() {
		return fmt.Errorf("insert layer %q: parent %q is not a group", l.Name, parent.Name)
	}
	list := &d.layers
	if parent != nil {
		list = &parent.Children
	}
	if index < 0 || index > len(*list) {
		index = len(*list)
	}
	*list = append(*list, nil)
	copy((*list)[index+1:], (*list)[index:])
	(*list)[index] = l
	return nil
}

// AddLayer appends l at the bottom of the top-level stack.
func (d *Document) AddLayer(l *Layer) {
	d.layers = append(d.layers, l)
}

// RemoveLayer detaches l from the tree. It reports whether l was found.
func (d *Document) RemoveLayer(l *Layer) bool {
	return removeFrom(&d.layers, l)
}

func removeFrom(list *[]*Layer, l *Layer) bool {
	for i, c := range *list {
		if c == l {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
		if c.IsGroup() && removeFrom(&c.Children, l) {
			return true
		}
	}
	return false
}

// Walk visits every layer depth-first, parents before children, in stack
// order. Returning false from fn stops the walk.
func (d *Document) Walk(fn func(l *Layer, depth int) bool) {
	walk(d.layers, 0, fn)
}

func walk(list []*Layer, depth int, fn func(*Layer, int) bool) bool {
	for _, l := range list {
		if !fn(l, depth) {
			return false
		}
		if l.IsGroup() && !walk(l.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// LayerByName returns the first layer (depth-first) named name.
func (d *Document) LayerByName(name string) (*Layer, bool) {
	var found *Layer
	d.Walk(func(l *Layer, _ int) bool {
		if l.Name == name {
			found = l
			return false
		}
		return true
	})
	return found, found != nil
}

// LayerByID returns the layer with the given ID.
func (d *Document) LayerByID(id string) (*Layer, bool) {
	var found *Layer
	d.Walk(func(l *Layer, _ int) bool {
		if l.ID == id {
			found = l
			return false
		}
		return true
	})
	return found, found != nil
}

// LayerCount returns the number of layers in the tree, groups included.
func (d *Document) LayerCount() int {
	n := 0
	d.Walk(func(*Layer, int) bool { n++; return true })
	return n
}

// ResizeCanvas changes the canvas size. Layers and guides are moved by
// (offX, offY); with a zero offset existing content stays where it is and
// new space appears on the right and bottom. Guides that fall outside the
// new canvas are removed.
func (d *Document) ResizeCanvas(w, h, offX, offY int) {
	if offX != 0 || offY != 0 {
		for _, l := range d.layers {
			l.translate(offX, offY)
		}
	}
	kept := d.guides[:0]
	for _, g := range d.guides {
		switch g.Orientation {
		case Horizontal:
			g.Position += offY
			if g.Position < 0 || g.Position > h {
				continue
			}
		case Vertical:
			g.Position += offX
			if g.Position < 0 || g.Position > w {
				continue
			}
		}
		kept = append(kept, g)
	}
	d.guides = kept
	d.Width, d.Height = w, h
	d.selection = clipRects(d.selection, d.Bounds())
}

// ResizeToLayers fits the canvas to the union of all layer boxes and moves
// everything so that union starts at the origin.
func (d *Document) ResizeToLayers() {
	var u image.Rectangle
	d.Walk(func(l *Layer, _ int) bool {
		if !l.IsGroup() {
			u = u.Union(l.Bounds())
		}
		return true
	})
	if u.Empty() {
		return
	}
	d.ResizeCanvas(u.Dx(), u.Dy(), -u.Min.X, -u.Min.Y)
}
