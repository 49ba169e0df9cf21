// export.go — Encodes a rendered surface into a downloadable artifact.
package compose

import (
	"errors"
	"fmt"

	"github.com/xob0t/eventdp/pkg/generator"
)

// DefaultPixelRatio is the export resolution multiplier over the on-screen
// size.
const DefaultPixelRatio = 2.0

// ExportOptions controls the exported artifact. Zero values mean PNG at
// DefaultPixelRatio.
type ExportOptions struct {
	PixelRatio float64
	Format     generator.Format
	Quality    int
}

// Artifact is an encoded DP image.
type Artifact struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// DataURL returns the artifact as a base64 data URL.
func (a *Artifact) DataURL() string {
	return generator.DataURL(a.MIME, a.Data)
}

// Export renders the surface and encodes it. Without a flyer it fails with
// ErrCapabilityUnavailable; every other failure wraps ErrExport and no
// partial artifact is returned.
func (s *Surface) Export(opts ExportOptions) (*Artifact, error) {
	ratio := opts.PixelRatio
	if ratio == 0 {
		ratio = DefaultPixelRatio
	}
	format := opts.Format
	if format == "" {
		format = generator.PNG
	}

	img, err := s.Render(ratio)
	if err != nil {
		if errors.Is(err, ErrCapabilityUnavailable) || errors.Is(err, ErrExport) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}

	data, err := generator.Encode(img, generator.Config{Format: format, Quality: opts.Quality})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return &Artifact{
		Data:   data,
		MIME:   format.MIME(),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}
