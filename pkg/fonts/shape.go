package fonts

import (
	"strings"
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// Advance returns the shaped width of a single line of text at size pixels.
func (f *Font) Advance(text string, size float64) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	script := detectScript(runes)
	shaper := &shaping.HarfbuzzShaper{}
	out := shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      f.shape,
		Size:      fixed.Int26_6(size * 64),
		Script:    script,
		Language:  language.DefaultLanguage(),
	})
	var adv fixed.Int26_6
	for _, g := range out.Glyphs {
		adv += g.XAdvance
	}
	return float64(adv) / 64
}

// Extents returns the size of text drawn at size pixels: the widest line's
// advance, and the height of all lines stacked at the font's line height.
func (f *Font) Extents(text string, size float64) (w, h float64, err error) {
	face, err := f.Face(size)
	if err != nil {
		return 0, 0, err
	}
	defer face.Close()
	m := face.Metrics()

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		w = max(w, f.Advance(line, size))
	}
	h = float64(m.Ascent+m.Descent)/64 + float64(len(lines)-1)*float64(m.Height)/64
	return w, h, nil
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

// detectScript returns the most frequent script in runes, Latin when none
// is recognised.
func detectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	best, bestCount := language.Latin, 0
	for _, r := range runes {
		s := scriptFromRune(r)
		if s == language.Unknown {
			continue
		}
		counts[s]++
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return best
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	}
	return language.Unknown
}
