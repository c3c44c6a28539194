package bleed

import "github.com/matzehuels/comictools/pkg/document"

type guideKey struct {
	orientation document.Orientation
	position    int
}

// moveGuides shifts every guide by the margin on its axis. Positions are
// collected and deduplicated before any guide is deleted, so guides that
// share a position collapse to a single shifted guide.
func moveGuides(doc *document.Document, m Margins) error {
	old := doc.Guides()

	seen := make(map[guideKey]bool, len(old))
	var keep []guideKey
	for _, g := range old {
		k := guideKey{g.Orientation, g.Position}
		if seen[k] {
			continue
		}
		seen[k] = true
		keep = append(keep, k)
	}

	for _, g := range old {
		if err := doc.DeleteGuide(g.ID); err != nil {
			return err
		}
	}

	for _, k := range keep {
		switch k.orientation {
		case document.Horizontal:
			doc.AddHGuide(k.position + m.Top)
		case document.Vertical:
			doc.AddVGuide(k.position + m.Left)
		}
	}
	return nil
}

// addTrimGuides marks the trim line on every side that received a margin.
func addTrimGuides(doc *document.Document, m Margins) {
	if m.Top > 0 {
		doc.AddHGuide(m.Top)
	}
	if m.Bottom > 0 {
		doc.AddHGuide(doc.Height - m.Bottom)
	}
	if m.Left > 0 {
		doc.AddVGuide(m.Left)
	}
	if m.Right > 0 {
		doc.AddVGuide(doc.Width - m.Right)
	}
}
