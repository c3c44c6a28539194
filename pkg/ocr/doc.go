// Package ocr converts pictures of lettering into editable text layers.
//
// [Apply] runs an [Engine] over every island of the document selection,
// paints the recognised regions over on a "Background" layer and adds one
// text layer per recognised word, line or block to an output group. Text
// layers are sized so the chosen font covers the same box as the original
// lettering (see [FitText]).
//
// Engines return ALTO v3 XML, which [ParseALTO] reads into an [ALTO] tree.
// The default engine is [Tesseract], which runs the tesseract binary. Builds
// with the gosseract tag add an in-process engine on libtesseract.
package ocr
