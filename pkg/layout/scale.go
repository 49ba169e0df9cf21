// Package layout maps design-space placeholder geometry onto the rendered
// canvas: scale factor, cover-fit crop, clip masks and text layout.
package layout

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrDimensions is returned when a size that must be positive is not.
var ErrDimensions = errors.New("non-positive dimensions")

// Rect is an axis-aligned rectangle in floating point pixels.
type Rect struct {
	X, Y, W, H float64
}

// Scaled multiplies every component by s.
func (r Rect) Scaled(s float64) Rect {
	return Rect{X: r.X * s, Y: r.Y * s, W: r.W * s, H: r.H * s}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Pixels rounds the rectangle outward to integer pixels.
func (r Rect) Pixels() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.W)), int(math.Ceil(r.Y+r.H)),
	)
}

// Scale returns the factor that fits a flyer of native size w×h into a
// container of width containerW without exceeding maxH:
//
//	min(containerW/w, maxH/h)
func Scale(w, h, containerW, maxH float64) (float64, error) {
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("flyer %gx%g: %w", w, h, ErrDimensions)
	}
	if containerW <= 0 || maxH <= 0 {
		return 0, fmt.Errorf("container %gx%g: %w", containerW, maxH, ErrDimensions)
	}
	return math.Min(containerW/w, maxH/h), nil
}

// CanvasSize returns the integer canvas size for a flyer at scale s.
func CanvasSize(w, h, s float64) (int, int) {
	return int(math.Round(w * s)), int(math.Round(h * s))
}
