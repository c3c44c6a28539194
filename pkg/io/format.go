package io

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/comictools/pkg/document"
)

// Format is a document file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatPNG  Format = "png"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// FormatFromPath returns FormatPNG for a .png extension and FormatJSON
// otherwise.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return FormatPNG
	}
	return FormatJSON
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "application/json"
}

// Decode reads a document in either format, detected from the content.
func Decode(data []byte) (*document.Document, Format, error) {
	if bytes.HasPrefix(data, pngSignature) {
		doc, err := ReadPNG(bytes.NewReader(data))
		return doc, FormatPNG, err
	}
	doc, err := ReadJSON(bytes.NewReader(data))
	return doc, FormatJSON, err
}

// Encode writes doc to w in format f. PNG output is flattened.
func Encode(w io.Writer, doc *document.Document, f Format) error {
	switch f {
	case FormatPNG:
		return WritePNG(doc, w)
	case FormatJSON:
		return WriteJSON(doc, w)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Load reads a document from path, choosing the format by extension.
func Load(path string) (*document.Document, error) {
	if FormatFromPath(path) == FormatPNG {
		return ImportPNG(path)
	}
	return ImportJSON(path)
}

// Save writes doc to path, choosing the format by extension.
func Save(doc *document.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, doc, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
