package document

import (
	"errors"
	"fmt"
	"image"
	"slices"
)

// Progress receives progress reports for a transaction.
type Progress interface {
	// Init opens the progress scope with a status message.
	Init(message string)
	// Update reports completion in [0, 1].
	Update(fraction float64)
	// End closes the progress scope.
	End()
}

type nopProgress struct{}

func (nopProgress) Init(string)    {}
func (nopProgress) Update(float64) {}
func (nopProgress) End()           {}

// SetProgress installs the reporter used by transactions. Nil restores the
// no-op reporter.
func (d *Document) SetProgress(p Progress) {
	if p == nil {
		p = nopProgress{}
	}
	d.progress = p
}

// ReportProgress forwards fraction to the installed reporter.
func (d *Document) ReportProgress(fraction float64) {
	d.progress.Update(fraction)
}

// ErrNothingToUndo is returned by Undo when the history is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

type snapshot struct {
	name        string
	width       int
	height      int
	layers      []*Layer
	guides      []Guide
	nextGuideID int
	selection   []image.Rectangle
}

type undoState struct {
	depth   int
	pending *snapshot
	history []*snapshot
}

func (d *Document) snapshot(name string) *snapshot {
	s := &snapshot{
		name:        name,
		width:       d.Width,
		height:      d.Height,
		guides:      slices.Clone(d.guides),
		nextGuideID: d.nextGuideID,
		selection:   slices.Clone(d.selection),
		layers:      make([]*Layer, len(d.layers)),
	}
	for i, l := range d.layers {
		s.layers[i] = l.clone()
	}
	return s
}

// BeginUndoGroup opens an undo group. Nested groups fold into the outermost
// one, which becomes a single history entry when it is closed.
func (d *Document) BeginUndoGroup(name string) {
	if d.undo.depth == 0 {
		d.undo.pending = d.snapshot(name)
	}
	d.undo.depth++
}

// EndUndoGroup closes the innermost undo group.
func (d *Document) EndUndoGroup() {
	if d.undo.depth == 0 {
		return
	}
	d.undo.depth--
	if d.undo.depth == 0 {
		d.undo.history = append(d.undo.history, d.undo.pending)
		d.undo.pending = nil
	}
}

// UndoNames returns the names of the undoable steps, oldest first.
func (d *Document) UndoNames() []string {
	names := make([]string, len(d.undo.history))
	for i, s := range d.undo.history {
		names[i] = s.name
	}
	return names
}

// Undo restores the document to its state before the last closed undo group.
func (d *Document) Undo() error {
	if d.undo.depth > 0 {
		return errors.New("cannot undo while an undo group is open")
	}
	n := len(d.undo.history)
	if n == 0 {
		return ErrNothingToUndo
	}
	s := d.undo.history[n-1]
	d.undo.history = d.undo.history[:n-1]
	d.Width, d.Height = s.width, s.height
	d.layers = s.layers
	d.guides = s.guides
	d.nextGuideID = s.nextGuideID
	d.selection = s.selection
	d.floating = nil
	return nil
}

// Transaction runs fn as one undoable, progress-reported step named name.
//
// The undo group and the progress scope are closed on every path. A panic
// raised by fn is recovered and returned as an error, and a floating
// selection left behind by a failed fn is discarded.
func (d *Document) Transaction(name string, fn func() error) (err error) {
	d.BeginUndoGroup(name)
	d.progress.Init(name)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
		if err != nil {
			d.floating = nil
		}
		d.EndUndoGroup()
		d.progress.End()
	}()
	return fn()
}
