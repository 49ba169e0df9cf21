// clip.go — Clip paths for the photo hole (box, circle, triangle).
package layout

import (
	"math"

	"github.com/xob0t/eventdp/pkg/event"
)

// Point is a position in render-space pixels.
type Point struct {
	X, Y float64
}

// ClipMask describes the group the photo is drawn into. The photo fills
// (0,0)-(Width,Height) in group-local coordinates, the group origin sits at
// Anchor on the canvas, and only the inside of the path stays visible.
type ClipMask struct {
	Shape  event.Shape
	Anchor Point
	Width  float64
	Height float64

	// Polygon is the local outline for box and triangle.
	Polygon []Point
	// Center and Radius are the local circle for ShapeCircle.
	Center Point
	Radius float64
}

// PathBuilder receives a clip path. *gg.Context satisfies it.
type PathBuilder interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	ClosePath()
	DrawCircle(x, y, r float64)
}

// ResolveClip builds the clip for a render-space placeholder. Unknown
// shapes fall back to a box.
//
// Circles are anchored by their centre: the group is shifted up and left by
// the radius, so for a square placeholder the circle is centred on the
// placeholder's declared top-left point. Box and triangle keep the top-left
// anchor. Existing event data is authored against this placement.
func ResolveClip(bounds Rect, shape event.Shape) ClipMask {
	m := ClipMask{
		Shape:  shape,
		Anchor: Point{bounds.X, bounds.Y},
		Width:  bounds.W,
		Height: bounds.H,
	}

	switch shape {
	case event.ShapeCircle:
		r := math.Min(bounds.W, bounds.H) / 2
		m.Radius = r
		m.Center = Point{bounds.W / 2, bounds.H / 2}
		m.Anchor = Point{bounds.X - r, bounds.Y - r}
	case event.ShapeTriangle:
		m.Polygon = []Point{
			{bounds.W / 2, 0},
			{bounds.W, bounds.H},
			{0, bounds.H},
		}
	default:
		m.Shape = event.ShapeBox
		m.Polygon = []Point{
			{0, 0},
			{bounds.W, 0},
			{bounds.W, bounds.H},
			{0, bounds.H},
		}
	}
	return m
}

// Layer is the canvas rectangle covered by the photo before clipping.
func (m ClipMask) Layer() Rect {
	return Rect{X: m.Anchor.X, Y: m.Anchor.Y, W: m.Width, H: m.Height}
}

// Bounds is the canvas bounding box of the clip path.
func (m ClipMask) Bounds() Rect {
	if m.Shape == event.ShapeCircle {
		return Rect{
			X: m.Anchor.X + m.Center.X - m.Radius,
			Y: m.Anchor.Y + m.Center.Y - m.Radius,
			W: 2 * m.Radius,
			H: 2 * m.Radius,
		}
	}
	if len(m.Polygon) == 0 {
		return Rect{X: m.Anchor.X, Y: m.Anchor.Y}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range m.Polygon {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Rect{X: m.Anchor.X + minX, Y: m.Anchor.Y + minY, W: maxX - minX, H: maxY - minY}
}

// Trace emits the path in canvas coordinates, offset by the anchor.
func (m ClipMask) Trace(b PathBuilder) {
	if m.Shape == event.ShapeCircle {
		b.DrawCircle(m.Anchor.X+m.Center.X, m.Anchor.Y+m.Center.Y, m.Radius)
		return
	}
	for i, p := range m.Polygon {
		if i == 0 {
			b.MoveTo(m.Anchor.X+p.X, m.Anchor.Y+p.Y)
			continue
		}
		b.LineTo(m.Anchor.X+p.X, m.Anchor.Y+p.Y)
	}
	b.ClosePath()
}

// Contains reports whether the canvas point (x, y) lies inside the clip.
func (m ClipMask) Contains(x, y float64) bool {
	lx, ly := x-m.Anchor.X, y-m.Anchor.Y
	if m.Shape == event.ShapeCircle {
		dx, dy := lx-m.Center.X, ly-m.Center.Y
		return dx*dx+dy*dy <= m.Radius*m.Radius
	}
	return insidePolygon(m.Polygon, lx, ly)
}

// insidePolygon is the even-odd ray casting test. Points on the left or
// top edge count as inside.
func insidePolygon(poly []Point, x, y float64) bool {
	in := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > y) != (b.Y > y) && x < (b.X-a.X)*(y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}
