// Package pkg provides the core libraries for comictools.
//
// # Overview
//
// Comictools edits layered comic pages for print and translation: it adds
// mirrored bleed around a page, replaces lettering with editable text layers
// through OCR, and upscales artwork. The pkg directory is organized into
// four main areas:
//
//  1. [document] - The layered document model (layers, selection, undo)
//  2. Operations - [bleed], [ocr] and [upscale], each one undoable edit
//  3. [pipeline] - Orchestration (load → operate → save) with caching
//  4. Support - [io], [fonts], [render], [cache], [config], [errors]
//
// # Architecture
//
// The typical data flow through comictools:
//
//	PNG page or document JSON
//	         ↓
//	    [io] package (decode into a document)
//	         ↓
//	    [bleed] / [ocr] / [upscale] (one document transaction each)
//	         ↓
//	    [io] package (document JSON or flattened PNG)
//
// External tools (tesseract, realesrgan-ncnn-vulkan, rsvg-convert) are run
// through [tool], which reports every invocation to [observability].
//
// # Quick Start
//
// Add 43 px of mirrored bleed to a page:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/comictools/pkg/bleed"
//	    "github.com/matzehuels/comictools/pkg/io"
//	)
//
//	doc, _ := io.ImportPNG("page.png")
//	if err := bleed.Apply(context.Background(), doc, bleed.Uniform(43), nil); err != nil {
//	    return err
//	}
//	io.ExportPNG(doc, "page-bleed.png")
//
// # Main Packages
//
// [document] - Layer tree of pixel, text and group layers over a canvas, with
// guides, a rectangle-union selection, a clipboard with floating pastes, and
// snapshot undo grouped by transactions.
//
// [bleed] - Grows the canvas and mirrors the edge strip of every layer that
// touches a canvas edge into the new margin; moves guides and adds trim guides.
//
// [ocr] - Recognises each selected region with tesseract (or gosseract when
// built with the gosseract tag), parses ALTO XML and fits text layers to the
// recognised boxes.
//
// [upscale] - Enlarges pixel layers with Real-ESRGAN or a built-in
// nearest-neighbour scaler and scales text layer geometry to match.
//
// [fonts] - Built-in Go fonts, metric fractions for text fitting, shaping
// and rasterisation of text layers.
//
// [render/tree] - Layer tree diagrams through Graphviz; [render] converts SVG
// to PNG and PDF.
//
// [cache] - File, Redis and no-op caches for OCR and upscale results.
//
// # Testing
//
// Run tests:
//
//	go test ./...                   # All tests
//	go test ./pkg/bleed/...         # Specific package
//	go test -run Example ./pkg/...  # Examples only
//	go test -tags gosseract ./pkg/ocr/...
//
// Tests that need tesseract, realesrgan-ncnn-vulkan or rsvg-convert skip
// when the binary is not installed.
package pkg
