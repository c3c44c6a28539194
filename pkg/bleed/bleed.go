package bleed

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comictools/pkg/document"
	"github.com/matzehuels/comictools/pkg/errors"
)

// TransactionName is the undo-history label of a bleed run.
const TransactionName = "Add Mirror Bleed"

// DefaultMargin is the per-side margin used when none is configured.
const DefaultMargin = 43

// Margins is the bleed width, in pixels, on each side of the canvas.
// Zero disables bleed on that side.
type Margins struct {
	Left   int `json:"left" toml:"left"`
	Right  int `json:"right" toml:"right"`
	Top    int `json:"top" toml:"top"`
	Bottom int `json:"bottom" toml:"bottom"`
}

// Uniform returns margins of m pixels on every side.
func Uniform(m int) Margins {
	return Margins{Left: m, Right: m, Top: m, Bottom: m}
}

// Validate rejects negative margins.
func (m Margins) Validate() error {
	return errors.ValidateMargins(m.Left, m.Right, m.Top, m.Bottom)
}

// ValidateFor checks m and that a width x height canvas grown by m stays
// within the canvas limits.
func (m Margins) ValidateFor(width, height int) error {
	if err := m.Validate(); err != nil {
		return err
	}
	// Both terms of each sum are bounded by MaxCanvasSize here.
	if width > errors.MaxCanvasSize || height > errors.MaxCanvasSize {
		return errors.New(errors.ErrCodeInvalidMargins, "canvas %dx%d is already beyond %d pixels", width, height, errors.MaxCanvasSize)
	}
	w, h := width+m.Left+m.Right, height+m.Top+m.Bottom
	if err := errors.ValidateCanvasSize(w, h); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMargins, err, "margins grow the canvas to %dx%d", w, h)
	}
	return nil
}

// IsZero reports whether no side has a margin.
func (m Margins) IsZero() bool {
	return m == Margins{}
}

// Apply grows doc by m and mirrors edge pixels into the new margins.
//
// All edits happen in one document transaction, so a single Undo reverts the
// whole operation. Any failure aborts the remaining steps and is returned as
// an [errors.ErrCodeOperationFailed] error; the transaction is closed either
// way. Negative margins, and margins that would grow the canvas beyond
// [errors.MaxCanvasSize] or [errors.MaxCanvasPixels], are rejected before the
// document is touched.
//
// A nil logger discards debug output.
func Apply(ctx context.Context, doc *document.Document, m Margins, logger *log.Logger) error {
	if err := m.ValidateFor(doc.Width, doc.Height); err != nil {
		return err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	err := doc.Transaction(TransactionName, func() error {
		doc.ResizeCanvas(doc.Width+m.Left+m.Right, doc.Height+m.Top+m.Bottom, 0, 0)
		doc.SelectNone()

		top := doc.Layers()
		for i, l := range top {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := addBleedToLayer(doc, l, m, logger); err != nil {
				return err
			}
			doc.ReportProgress(float64(i+1) / float64(len(top)))
		}

		if err := moveGuides(doc, m); err != nil {
			return err
		}
		addTrimGuides(doc, m)
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeOperationFailed, err, "unexpected error")
	}
	return nil
}

// addBleedToLayer moves l into the grown canvas and extends it with mirrored
// strips where it meets a canvas edge. Groups recurse into their children.
func addBleedToLayer(doc *document.Document, l *document.Layer, m Margins, logger *log.Logger) error {
	if l.IsGroup() {
		for _, c := range l.ChildList() {
			if err := addBleedToLayer(doc, c, m, logger); err != nil {
				return err
			}
		}
		return nil
	}

	x, y := l.Offsets()
	w, h := l.Width, l.Height
	x, y = x+m.Left, y+m.Top
	l.SetOffsets(x, y)

	if l.IsText() {
		return nil
	}

	e := edgeMargins(x, y, w, h, doc.Width, doc.Height, m)
	if e.IsZero() {
		return nil
	}
	logger.Debug("bleeding layer", "layer", l.Name,
		"left", e.Left, "right", e.Right, "top", e.Top, "bottom", e.Bottom)

	l.Resize(w+e.Left+e.Right, h+e.Top+e.Bottom, e.Left, e.Top)

	if e.Left > 0 {
		if err := copyMoveAndFlip(doc, l, x+1, y, e.Left, h, x-e.Left, y, document.Horizontal); err != nil {
			return err
		}
	}
	if e.Right > 0 {
		if err := copyMoveAndFlip(doc, l, x+w-e.Right-1, y, e.Right, h, x+w, y, document.Horizontal); err != nil {
			return err
		}
	}

	// The vertical strips span the widened layer.
	x -= e.Left
	w += e.Left + e.Right

	if e.Top > 0 {
		if err := copyMoveAndFlip(doc, l, x, y+1, w, e.Top, x, y-e.Top, document.Vertical); err != nil {
			return err
		}
	}
	if e.Bottom > 0 {
		if err := copyMoveAndFlip(doc, l, x, y+h-e.Bottom-1, w, e.Bottom, x, y+h, document.Vertical); err != nil {
			return err
		}
	}
	doc.SelectNone()
	return nil
}

// edgeMargins computes how far the layer box (x, y, w, h), already moved into
// a canvas of size cw × ch, must grow on each side.
func edgeMargins(x, y, w, h, cw, ch int, m Margins) Margins {
	var e Margins
	if x > 0 && x <= m.Left {
		e.Left = x
	}
	if x+w >= cw-m.Right && x+w < cw {
		e.Right = cw - (x + w)
	}
	if y > 0 && y <= m.Top {
		e.Top = y
	}
	if y+h >= ch-m.Bottom && y+h < ch {
		e.Bottom = ch - (y + h)
	}
	return e
}

// copyMoveAndFlip copies the canvas rectangle (x, y, w, h) of l, flips it
// along axis and anchors it back into l at (newX, newY). The source is
// clamped to the canvas; a clamped region of zero area is skipped.
func copyMoveAndFlip(doc *document.Document, l *document.Layer, x, y, w, h, newX, newY int, axis document.Orientation) error {
	if x < 0 {
		w += x
		newX -= x
		x = 0
	}
	if y < 0 {
		h += y
		newY -= y
		y = 0
	}
	w = min(w, doc.Width-x)
	h = min(h, doc.Height-y)
	if w <= 0 || h <= 0 {
		return nil
	}

	doc.SelectRectangle(document.OpReplace, x, y, w, h)
	if err := doc.Copy(l); err != nil {
		return err
	}
	f, err := doc.Paste(l)
	if err != nil {
		return err
	}
	f.Flip(axis)
	f.SetOffsets(newX, newY)
	return f.Anchor()
}
