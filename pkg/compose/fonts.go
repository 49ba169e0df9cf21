// fonts.go — Font lookup by CSS family, weight and style with embedded Go
// font fallbacks. Parsed fonts are cached; faces are created per render
// because a font.Face is not safe for concurrent use.
package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type fontKey struct {
	family       string
	bold, italic bool
}

// FontManager resolves font families against a directory of TTF/OTF files.
// A family "Open Sans" bold italic is looked up as OpenSans-BoldItalic.ttf,
// Open Sans-BoldItalic.ttf and the .otf variants; regular also tries the
// bare family name. Anything not found uses the matching Go font.
type FontManager struct {
	dir string

	mu    sync.Mutex
	fonts map[fontKey]*opentype.Font
}

// NewFontManager creates a font manager reading custom fonts from dir.
// An empty dir uses embedded Go fonts only.
func NewFontManager(dir string) *FontManager {
	return &FontManager{dir: dir, fonts: make(map[fontKey]*opentype.Font)}
}

// Face returns a new face at size pixels. The caller closes it.
func (fm *FontManager) Face(family string, bold, italic bool, size float64) (font.Face, error) {
	f, err := fm.font(fontKey{family: primaryFamily(family), bold: bold, italic: italic})
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

func (fm *FontManager) font(key fontKey) (*opentype.Font, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if f, ok := fm.fonts[key]; ok {
		return f, nil
	}

	data := fm.readCustom(key)
	if data == nil {
		if key.family != "" && fm.dir != "" {
			Logger().Debug("font not found, using Go font", "family", key.family, "bold", key.bold, "italic", key.italic)
		}
		data = embedded(key.bold, key.italic)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %q: %w", key.family, err)
	}
	fm.fonts[key] = f
	return f, nil
}

func (fm *FontManager) readCustom(key fontKey) []byte {
	if fm.dir == "" || key.family == "" {
		return nil
	}
	variant := "Regular"
	switch {
	case key.bold && key.italic:
		variant = "BoldItalic"
	case key.bold:
		variant = "Bold"
	case key.italic:
		variant = "Italic"
	}

	names := []string{key.family, strings.ReplaceAll(key.family, " ", "")}
	for _, name := range names {
		candidates := []string{name + "-" + variant + ".ttf", name + "-" + variant + ".otf"}
		if variant == "Regular" {
			candidates = append(candidates, name+".ttf", name+".otf")
		}
		for _, c := range candidates {
			data, err := os.ReadFile(filepath.Join(fm.dir, filepath.Base(c)))
			if err == nil {
				return data
			}
		}
	}
	return nil
}

// primaryFamily takes the first entry of a CSS font-family list.
func primaryFamily(family string) string {
	first, _, _ := strings.Cut(family, ",")
	return strings.Trim(strings.TrimSpace(first), `"'`)
}

func embedded(bold, italic bool) []byte {
	switch {
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}
