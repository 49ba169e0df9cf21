// crop.go — Source crop that emulates CSS object-fit: cover.
package layout

import (
	"fmt"
	"image"
	"math"
)

// CoverCrop returns the region of an imgW×imgH source that, stretched into
// a placeholder with aspect boxW/boxH, fills it completely without
// distortion. The overflow is cut evenly from both sides.
func CoverCrop(imgW, imgH, boxW, boxH float64) (Rect, error) {
	if imgW <= 0 || imgH <= 0 {
		return Rect{}, fmt.Errorf("image %gx%g: %w", imgW, imgH, ErrDimensions)
	}
	if boxW <= 0 || boxH <= 0 {
		return Rect{}, fmt.Errorf("placeholder %gx%g: %w", boxW, boxH, ErrDimensions)
	}

	aspect := boxW / boxH
	var c Rect
	if imgW/imgH > aspect {
		c.H = imgH
		c.W = imgH * aspect
		c.X = (imgW - c.W) / 2
	} else {
		c.W = imgW
		c.H = imgW / aspect
		c.Y = (imgH - c.H) / 2
	}
	return clampInto(c, imgW, imgH), nil
}

// clampInto pulls r back inside [0,w]×[0,h] after floating point drift.
func clampInto(r Rect, w, h float64) Rect {
	r.W = math.Min(r.W, w)
	r.H = math.Min(r.H, h)
	r.X = math.Max(0, math.Min(r.X, w-r.W))
	r.Y = math.Max(0, math.Min(r.Y, h-r.H))
	return r
}

// CropPixels converts a crop to an integer rectangle inside bounds.
// Rounding goes to the nearest pixel and never leaves the source. A side
// that rounds to zero keeps one pixel at the centre of the crop.
func CropPixels(c Rect, bounds image.Rectangle) image.Rectangle {
	x0, x1 := pixelSpan(c.X, c.W, bounds.Min.X, bounds.Max.X)
	y0, y1 := pixelSpan(c.Y, c.H, bounds.Min.Y, bounds.Max.Y)
	return image.Rect(x0, y0, x1, y1)
}

// pixelSpan rounds [off, off+size) to pixels inside [lo, hi).
func pixelSpan(off, size float64, lo, hi int) (int, int) {
	a := lo + int(math.Round(off))
	b := lo + int(math.Round(off+size))
	if b <= a {
		a = lo + int(math.Round(off+size/2))
		b = a + 1
	}
	a = max(lo, min(a, hi-1))
	b = max(a+1, min(b, hi))
	return a, b
}
