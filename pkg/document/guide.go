package document

import (
	"fmt"
	"slices"
)

// Orientation is the direction of a guide or a flip axis.
//
// A Horizontal guide is a line at a y position; a Vertical guide is at an x
// position. Flipping along Horizontal mirrors columns (left ↔ right);
// flipping along Vertical mirrors rows (top ↔ bottom).
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// String returns "horizontal" or "vertical".
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Guide is a non-printing alignment line.
type Guide struct {
	ID          int
	Orientation Orientation
	Position    int
}

// Guides returns the guides in insertion order.
func (d *Document) Guides() []Guide {
	return slices.Clone(d.guides)
}

// AddGuide adds a guide and returns its ID. Duplicate positions are allowed.
func (d *Document) AddGuide(o Orientation, pos int) int {
	d.nextGuideID++
	d.guides = append(d.guides, Guide{ID: d.nextGuideID, Orientation: o, Position: pos})
	return d.nextGuideID
}

// AddHGuide adds a horizontal guide at y.
func (d *Document) AddHGuide(y int) int { return d.AddGuide(Horizontal, y) }

// AddVGuide adds a vertical guide at x.
func (d *Document) AddVGuide(x int) int { return d.AddGuide(Vertical, x) }

// DeleteGuide removes the guide with the given ID.
func (d *Document) DeleteGuide(id int) error {
	for i, g := range d.guides {
		if g.ID == id {
			d.guides = slices.Delete(d.guides, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("guide %d not found", id)
}
