// text.go — Draws text placeholders onto the canvas.
package compose

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/xob0t/eventdp/pkg/event"
	"github.com/xob0t/eventdp/pkg/generator"
	"github.com/xob0t/eventdp/pkg/layout"
)

// LineHeight is the line box height as a multiple of the font size.
const LineHeight = 1.0

var defaultTextColor = color.RGBA{0, 0, 0, 255}

// drawText renders input into tp at factor f (scale × pixel ratio).
// Blank input draws nothing.
func (s *Surface) drawText(dst *image.RGBA, tp event.TextPlaceholder, input string, f float64) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	box := layout.Rect{X: tp.X, Y: tp.Y, W: tp.Width, H: tp.Height}.Scaled(f)
	size := tp.FontSize * f
	if box.Empty() || size <= 0 {
		Logger().Warn("text placeholder has no area", "label", tp.Label)
		return nil
	}

	face, err := s.fonts().Face(tp.FontFamily, event.IsBold(tp.FontWeight), tp.FontStyle == "italic", size)
	if err != nil {
		return err
	}
	defer face.Close()

	measure := func(str string) float64 {
		return fixedToFloat(font.MeasureString(face, str))
	}
	lh := size * LineHeight
	lines := layout.LayoutText(layout.ApplyTransform(input, tp.TextTransform), box, lh, tp.TextAlign, measure)

	// Centre the glyph extent vertically inside each line box.
	m := face.Metrics()
	ascent, descent := fixedToFloat(m.Ascent), fixedToFloat(m.Descent)
	baseline := (lh-(ascent+descent))/2 + ascent

	col := generator.Premultiply(generator.ParseHexRGBA(tp.Color, defaultTextColor))
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	for _, line := range lines {
		drawer.Dot = fixed.Point26_6{X: floatToFixed(line.X), Y: floatToFixed(line.Y + baseline)}
		drawer.DrawString(line.Text)
	}
	return nil
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
