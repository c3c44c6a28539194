// Package io reads and writes comictools documents.
//
// # Formats
//
// A document is stored as JSON with every pixel layer embedded as PNG
// (base64 encoded by encoding/json):
//
//	{
//	  "version": 1,
//	  "width": 2480,
//	  "height": 3508,
//	  "guides": [{"orientation": "horizontal", "position": 43}],
//	  "layers": [
//	    {"id": "…", "name": "OCR", "kind": "group", "children": [ … ]},
//	    {"id": "…", "name": "Caption", "kind": "text", "x": 120, "y": 80,
//	     "width": 300, "height": 60, "text": {"text": "MEANWHILE…", "font": "Go", "size": 28}},
//	    {"id": "…", "name": "Background", "kind": "pixel", "x": 0, "y": 0,
//	     "width": 2480, "height": 3508, "png": "iVBORw0KGgo…"}
//	  ]
//	}
//
// Layers are listed top first. Undo history, the selection and the
// clipboard are not persisted.
//
// A plain PNG can be imported as a one-layer document ([ImportPNG]) and any
// document can be flattened to PNG ([ExportPNG]); text layers are drawn with
// [fonts.DrawLayer].
//
// [Load] and [Save] pick the format from the file extension; [Decode]
// sniffs the PNG signature, which the HTTP server relies on.
//
// [fonts.DrawLayer]: github.com/matzehuels/comictools/pkg/fonts.DrawLayer
package io
