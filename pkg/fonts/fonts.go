// Package fonts resolves, measures and draws the fonts used for text layers.
//
// Fonts are looked up by name from the embedded Go font family ("Go",
// "Go Bold", "Go Mono", ...) or loaded from a TrueType/OpenType file path.
// Parsed fonts are cached for the life of the process.
//
// Advances come from HarfBuzz shaping (github.com/go-text/typesetting), so
// kerning and ligatures are reflected in [Font.Extents]. Rasterisation and
// vertical metrics use golang.org/x/image/font/opentype.
package fonts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

// DefaultName is the font used when none is configured.
const DefaultName = "Go"

// ErrUnknownFont is returned by [Lookup] for a name that is neither a
// built-in font nor a readable font file.
var ErrUnknownFont = errors.New("unknown font")

var builtin = map[string][]byte{
	"go":             goregular.TTF,
	"go regular":     goregular.TTF,
	"go bold":        gobold.TTF,
	"go italic":      goitalic.TTF,
	"go bold italic": gobolditalic.TTF,
	"go medium":      gomedium.TTF,
	"go mono":        gomono.TTF,
	"go mono bold":   gomonobold.TTF,
	"go smallcaps":   gosmallcaps.TTF,
}

// Font is a parsed font. It is safe for concurrent use; faces and shapers
// are created per call.
type Font struct {
	Name string

	data  []byte
	sfnt  *opentype.Font
	shape *gotext.Face
}

var loaded sync.Map // name -> *Font

// Names returns the built-in font names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the font called name. Built-in names are matched case
// insensitively; anything else is treated as a file path.
func Lookup(name string) (*Font, error) {
	if name == "" {
		name = DefaultName
	}
	if f, ok := loaded.Load(name); ok {
		return f.(*Font), nil
	}

	data, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		var err error
		data, err = os.ReadFile(name)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownFont, name)
			}
			return nil, fmt.Errorf("read font %s: %w", name, err)
		}
	}

	f, err := Parse(displayName(name), data)
	if err != nil {
		return nil, err
	}
	actual, _ := loaded.LoadOrStore(name, f)
	return actual.(*Font), nil
}

// Parse parses TrueType or OpenType data.
func Parse(name string, data []byte) (*Font, error) {
	sf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	sh, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	return &Font{Name: name, data: data, sfnt: sf, shape: sh}, nil
}

func displayName(name string) string {
	if _, ok := builtin[strings.ToLower(strings.TrimSpace(name))]; ok {
		return name
	}
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// Face returns a rasterisation face at size pixels.
func (f *Font) Face(size float64) (font.Face, error) {
	return opentype.NewFace(f.sfnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}
