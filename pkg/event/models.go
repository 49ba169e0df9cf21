// Package event defines flyer events and the placeholders attendees fill in.
package event

import "time"

// ── Event types ──

// Event is a published flyer with the regions an attendee can personalise.
// It is read-only for the duration of a rendering session.
type Event struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Date              string             `json:"date"`
	Description       string             `json:"description"`
	FlyerURL          string             `json:"flyerUrl"`
	OrganizerID       string             `json:"organizerId,omitempty"`
	ImagePlaceholders []ImagePlaceholder `json:"imagePlaceholders"`
	TextPlaceholders  []TextPlaceholder  `json:"textPlaceholders"`
	CreatedAt         time.Time          `json:"createdAt,omitempty"`
}

// Shape is the hole cut into the flyer for the attendee photo.
type Shape string

const (
	ShapeBox      Shape = "box"
	ShapeCircle   Shape = "circle"
	ShapeTriangle Shape = "triangle"
)

// Known reports whether s is one of the supported hole shapes.
func (s Shape) Known() bool {
	switch s {
	case ShapeBox, ShapeCircle, ShapeTriangle:
		return true
	}
	return false
}

// ImagePlaceholder is the photo region, in flyer pixels.
type ImagePlaceholder struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	HoleShape Shape   `json:"holeShape"`
}

// TextPlaceholder is a text region, in flyer pixels.
type TextPlaceholder struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	FontSize      float64 `json:"fontSize"`
	Color         string  `json:"color"`
	TextAlign     string  `json:"textAlign"`     // "left", "center", "right"
	FontFamily    string  `json:"fontFamily"`    // resolved against the font directory
	FontStyle     string  `json:"fontStyle"`     // "normal", "italic"
	TextTransform string  `json:"textTransform"` // "none", "uppercase", "lowercase", "capitalize"
	FontWeight    string  `json:"fontWeight"`    // "normal", "bold" or 100–900
	Label         string  `json:"label,omitempty"`
}

// MaxTextPlaceholders is the most text regions an event may declare.
const MaxTextPlaceholders = 3

// PhotoPlaceholder returns the placeholder the photo is drawn into.
// Only the first image placeholder is consumed.
func (e *Event) PhotoPlaceholder() (ImagePlaceholder, bool) {
	if e == nil || len(e.ImagePlaceholders) == 0 {
		return ImagePlaceholder{}, false
	}
	return e.ImagePlaceholders[0], true
}

// ── Defaults ──

const (
	DefaultFontSize  = 16
	DefaultColor     = "#000000"
	DefaultTextAlign = "left"
	DefaultTransform = "none"
)

// Normalize fills in render-time defaults so malformed placeholder data
// degrades instead of failing. Dimensions are left untouched: zero-area
// placeholders are skipped by the renderer.
func Normalize(e *Event) {
	for i := range e.ImagePlaceholders {
		p := &e.ImagePlaceholders[i]
		if !p.HoleShape.Known() {
			p.HoleShape = ShapeBox
		}
	}
	for i := range e.TextPlaceholders {
		t := &e.TextPlaceholders[i]
		if t.FontSize <= 0 {
			t.FontSize = DefaultFontSize
		}
		if t.Color == "" {
			t.Color = DefaultColor
		}
		if t.TextAlign == "" {
			t.TextAlign = DefaultTextAlign
		}
		if t.TextTransform == "" {
			t.TextTransform = DefaultTransform
		}
	}
}
