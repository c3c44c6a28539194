package ocr

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/comictools/pkg/errors"
	"github.com/matzehuels/comictools/pkg/tool"
)

// Engine recognises text in a PNG image and returns an ALTO v3 document.
type Engine interface {
	// Name identifies the engine in cache keys and logs.
	Name() string

	// Check reports a TOOL_NOT_FOUND error when the engine cannot run.
	Check() error

	// Recognize runs recognition on png with the given tesseract language
	// codes (empty means the engine default).
	Recognize(ctx context.Context, png []byte, languages []string) ([]byte, error)
}

var engines = map[string]func(path string) Engine{
	"tesseract": func(path string) Engine { return NewTesseract(path) },
}

// registerEngine makes an engine available to [NewEngine].
func registerEngine(name string, fn func(path string) Engine) {
	engines[name] = fn
}

// EngineNames returns the engines compiled into this binary.
func EngineNames() []string {
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewEngine returns the engine called name. path is the executable for
// engines that run one; an empty name selects tesseract.
func NewEngine(name, path string) (Engine, error) {
	if name == "" {
		name = "tesseract"
	}
	fn, ok := engines[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown OCR engine %q (available: %s)", name, strings.Join(EngineNames(), ", "))
	}
	return fn(path), nil
}

// DefaultTesseractPath is the tesseract executable looked up in PATH.
const DefaultTesseractPath = "tesseract"

// Tesseract runs the tesseract command line tool with its alto output
// configuration.
type Tesseract struct {
	Path string
}

// NewTesseract returns an engine running the executable at path. An empty
// path means [DefaultTesseractPath].
func NewTesseract(path string) *Tesseract {
	if path == "" {
		path = DefaultTesseractPath
	}
	return &Tesseract{Path: path}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Check() error {
	_, err := tool.Resolve(t.Path)
	return err
}

// Recognize writes png to a temporary directory, runs
// "tesseract in.png out [-l langs] alto" and returns out.xml.
func (t *Tesseract) Recognize(ctx context.Context, png []byte, languages []string) ([]byte, error) {
	exe, err := tool.Resolve(t.Path)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "comictools-ocr-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create temp dir")
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	if err := os.WriteFile(in, png, 0o600); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write OCR input")
	}
	outBase := filepath.Join(dir, "out")

	args := []string{in, outBase}
	if len(languages) > 0 {
		args = append(args, "-l", strings.Join(languages, "+"))
	}
	args = append(args, "alto")

	if _, err := tool.Run(ctx, tool.Cmd{Path: exe, Args: args, Dir: dir}); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(outBase + ".xml")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeToolFailed, err, "tesseract produced no ALTO output")
	}
	return data, nil
}
