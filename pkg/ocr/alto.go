package ocr

import (
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"math"
	"strings"
)

// ALTONamespace is the XML namespace of ALTO v3 documents.
const ALTONamespace = "http://www.loc.gov/standards/alto/ns-v3#"

// Mode selects the granularity of recognised items.
type Mode int

const (
	// ModeAuto derives the mode from Options.LineByLine.
	ModeAuto Mode = iota
	ModeWords
	ModeLines
	ModeBlocks
)

var modeNames = map[Mode]string{
	ModeAuto:   "auto",
	ModeWords:  "words",
	ModeLines:  "lines",
	ModeBlocks: "blocks",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name as printed by String.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return ModeAuto, fmt.Errorf("unknown OCR mode %q", s)
}

// ALTO is the subset of an ALTO v3 document the engines produce.
type ALTO struct {
	XMLName xml.Name `xml:"http://www.loc.gov/standards/alto/ns-v3# alto"`
	Pages   []Page   `xml:"Layout>Page"`
}

// Box is the position and size attributes shared by ALTO elements.
type Box struct {
	HPos   float64 `xml:"HPOS,attr"`
	VPos   float64 `xml:"VPOS,attr"`
	Width  float64 `xml:"WIDTH,attr"`
	Height float64 `xml:"HEIGHT,attr"`
}

// Rect rounds the box to pixel coordinates.
func (b Box) Rect() image.Rectangle {
	x, y := int(math.Round(b.HPos)), int(math.Round(b.VPos))
	return image.Rect(x, y, x+int(math.Round(b.Width)), y+int(math.Round(b.Height)))
}

func boxOf(r image.Rectangle) Box {
	return Box{HPos: float64(r.Min.X), VPos: float64(r.Min.Y), Width: float64(r.Dx()), Height: float64(r.Dy())}
}

type Page struct {
	PrintSpaces []PrintSpace `xml:"PrintSpace"`
}

type PrintSpace struct {
	ComposedBlocks []ComposedBlock `xml:"ComposedBlock"`
}

type ComposedBlock struct {
	Box
	TextBlocks []TextBlock `xml:"TextBlock"`
}

type TextBlock struct {
	Box
	Lines []TextLine `xml:"TextLine"`
}

type TextLine struct {
	Box
	Strings []String `xml:"String"`
}

// String is one recognised word.
type String struct {
	Box
	Content string `xml:"CONTENT,attr"`
}

// ParseALTO decodes an ALTO v3 document.
func ParseALTO(r io.Reader) (*ALTO, error) {
	var a ALTO
	if err := xml.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("parse ALTO: %w", err)
	}
	return &a, nil
}

// Marshal encodes a as an ALTO v3 document.
func (a *ALTO) Marshal() ([]byte, error) {
	data, err := xml.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}

// Item is a piece of recognised text and its box, relative to the image the
// engine saw.
type Item struct {
	Text string
	Box  image.Rectangle
}

// Items flattens a into items of the given mode. Words are joined by a
// space within a line and lines by a newline within a block. Items without
// text or without area are dropped. ModeAuto is treated as ModeBlocks.
func (a *ALTO) Items(mode Mode) []Item {
	var items []Item
	add := func(text string, b Box) {
		r := b.Rect()
		if text == "" || r.Dx() <= 0 || r.Dy() <= 0 {
			return
		}
		items = append(items, Item{Text: text, Box: r})
	}

	for _, p := range a.Pages {
		for _, ps := range p.PrintSpaces {
			for _, cb := range ps.ComposedBlocks {
				var blockLines []string
				for _, tb := range cb.TextBlocks {
					for _, tl := range tb.Lines {
						if mode == ModeWords {
							for _, s := range tl.Strings {
								add(strings.TrimSpace(s.Content), s.Box)
							}
							continue
						}
						line := lineText(tl)
						if mode == ModeLines {
							add(line, tl.Box)
							continue
						}
						blockLines = append(blockLines, line)
					}
				}
				if mode != ModeWords && mode != ModeLines {
					add(strings.Trim(strings.Join(blockLines, "\n"), "\n"), cb.Box)
				}
			}
		}
	}
	return items
}

func lineText(tl TextLine) string {
	words := make([]string, 0, len(tl.Strings))
	for _, s := range tl.Strings {
		if w := strings.TrimSpace(s.Content); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}
