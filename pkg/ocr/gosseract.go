//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
)

func init() {
	registerEngine("gosseract", func(string) Engine { return NewGosseract() })
}

// Gosseract recognises text in-process through libtesseract.
type Gosseract struct {
	clientFactory func() *gosseract.Client
}

// NewGosseract returns an engine backed by a fresh gosseract client per call.
func NewGosseract() *Gosseract {
	return &Gosseract{clientFactory: gosseract.NewClient}
}

func (g *Gosseract) Name() string { return "gosseract" }

// Check always succeeds; the library is linked in.
func (g *Gosseract) Check() error { return nil }

// Recognize runs word-level recognition and assembles the boxes into the
// same ALTO structure the tesseract binary writes: one composed block per
// tesseract block, one text block per paragraph, one line per text line.
func (g *Gosseract) Recognize(ctx context.Context, png []byte, languages []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := g.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize words: %w", err)
	}
	return wordsToALTO(boxes).Marshal()
}

func wordsToALTO(boxes []gosseract.BoundingBox) *ALTO {
	var ps PrintSpace
	var cbRect, tbRect, tlRect image.Rectangle
	lastBlock, lastPar, lastLine := -1, -1, -1

	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		if b.BlockNum != lastBlock {
			ps.ComposedBlocks = append(ps.ComposedBlocks, ComposedBlock{})
			cbRect = image.Rectangle{}
			lastBlock, lastPar, lastLine = b.BlockNum, -1, -1
		}
		cb := &ps.ComposedBlocks[len(ps.ComposedBlocks)-1]
		if b.ParNum != lastPar {
			cb.TextBlocks = append(cb.TextBlocks, TextBlock{})
			tbRect = image.Rectangle{}
			lastPar, lastLine = b.ParNum, -1
		}
		tb := &cb.TextBlocks[len(cb.TextBlocks)-1]
		if b.LineNum != lastLine {
			tb.Lines = append(tb.Lines, TextLine{})
			tlRect = image.Rectangle{}
			lastLine = b.LineNum
		}
		tl := &tb.Lines[len(tb.Lines)-1]

		tl.Strings = append(tl.Strings, String{Box: boxOf(b.Box), Content: b.Word})
		tlRect = tlRect.Union(b.Box)
		tbRect = tbRect.Union(b.Box)
		cbRect = cbRect.Union(b.Box)
		tl.Box, tb.Box, cb.Box = boxOf(tlRect), boxOf(tbRect), boxOf(cbRect)
	}
	return &ALTO{Pages: []Page{{PrintSpaces: []PrintSpace{ps}}}}
}
