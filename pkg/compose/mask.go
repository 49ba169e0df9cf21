// mask.go — Rasterises clip paths into alpha masks with gg.
package compose

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"github.com/xob0t/eventdp/pkg/layout"
)

// rasterizeMask fills the clip path of m on a transparent w×h canvas. Only
// the alpha channel of the result is meaningful.
func rasterizeMask(m layout.ClipMask, w, h int) (image.Image, error) {
	dc := gg.NewContext(w, h)
	defer func() { _ = dc.Close() }()

	dc.SetRGBA(1, 1, 1, 1)
	m.Trace(dc)
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("fill %s mask: %w", m.Shape, err)
	}
	return dc.Image(), nil
}
