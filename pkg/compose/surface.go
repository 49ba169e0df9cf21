// surface.go — Three-layer composition: flyer, masked photo, text.
package compose

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/xob0t/eventdp/pkg/event"
	"github.com/xob0t/eventdp/pkg/layout"
)

// Surface is an immutable snapshot of everything needed to rasterise one
// DP. Layers are drawn in a fixed order: flyer over the full bounds, the
// photo clipped to its hole, then every text placeholder.
type Surface struct {
	Event *event.Event // nil: flyer only
	Flyer image.Image  // required
	Photo image.Image  // nil: photo layer skipped
	Texts []string     // positional, one per text placeholder
	Scale float64      // design space → render space
	Fonts *FontManager // nil: embedded Go fonts
}

// Render rasterises the surface at Scale × pixelRatio.
func (s *Surface) Render(pixelRatio float64) (*image.RGBA, error) {
	if s.Flyer == nil || s.Flyer.Bounds().Empty() {
		return nil, fmt.Errorf("render: no flyer loaded: %w", ErrCapabilityUnavailable)
	}
	if s.Scale <= 0 || pixelRatio <= 0 || math.IsNaN(s.Scale*pixelRatio) {
		return nil, fmt.Errorf("render: scale %g at ratio %g: %w", s.Scale, pixelRatio, ErrValidation)
	}
	f := s.Scale * pixelRatio

	fb := s.Flyer.Bounds()
	w, h := layout.CanvasSize(float64(fb.Dx()), float64(fb.Dy()), f)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("render: canvas %dx%d: %w", w, h, ErrExport)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), s.Flyer, fb, draw.Src, nil)

	if s.Event == nil {
		return dst, nil
	}

	if s.Photo != nil {
		if err := s.drawPhoto(dst, f); err != nil {
			return nil, err
		}
	}

	for i, tp := range s.Event.TextPlaceholders {
		if i >= len(s.Texts) {
			break
		}
		if err := s.drawText(dst, tp, s.Texts[i], f); err != nil {
			return nil, fmt.Errorf("render text %d: %w", i, err)
		}
	}
	return dst, nil
}

// drawPhoto cover-fits the photo into the first image placeholder and
// composites it through the placeholder's clip mask.
func (s *Surface) drawPhoto(dst *image.RGBA, f float64) error {
	ph, ok := s.Event.PhotoPlaceholder()
	if !ok {
		return nil
	}
	bounds := layout.Rect{X: ph.X, Y: ph.Y, W: ph.Width, H: ph.Height}.Scaled(f)
	if bounds.Empty() {
		Logger().Warn("image placeholder has no area", "w", ph.Width, "h", ph.Height)
		return nil
	}

	pb := s.Photo.Bounds()
	crop, err := layout.CoverCrop(float64(pb.Dx()), float64(pb.Dy()), bounds.W, bounds.H)
	if err != nil {
		return fmt.Errorf("crop photo: %w", err)
	}
	clip := layout.ResolveClip(bounds, ph.HoleShape)

	layer := image.NewRGBA(dst.Bounds())
	xdraw.CatmullRom.Scale(layer, roundRect(clip.Layer()), s.Photo, layout.CropPixels(crop, pb), draw.Src, nil)

	mask, err := rasterizeMask(clip, dst.Bounds().Dx(), dst.Bounds().Dy())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	draw.DrawMask(dst, dst.Bounds(), layer, image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}

func (s *Surface) fonts() *FontManager {
	if s.Fonts == nil {
		return defaultFonts
	}
	return s.Fonts
}

var defaultFonts = NewFontManager("")

// roundRect snaps r to the nearest pixel edges.
func roundRect(r layout.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)),
	)
}
