// validator.go — Creation-time checks on organizer supplied events.
package event

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid event")

// Validate checks an event before it is stored. Rendering never calls it;
// the renderer tolerates the same defects by skipping or defaulting.
func Validate(e *Event) error {
	if e == nil {
		return fmt.Errorf("%w: event is nil", ErrInvalid)
	}

	var problems []string
	if strings.TrimSpace(e.Title) == "" {
		problems = append(problems, "title is required")
	}
	if len(e.ImagePlaceholders) == 0 {
		problems = append(problems, "at least one image placeholder is required")
	}
	if len(e.TextPlaceholders) > MaxTextPlaceholders {
		problems = append(problems, fmt.Sprintf("at most %d text placeholders are allowed, got %d",
			MaxTextPlaceholders, len(e.TextPlaceholders)))
	}

	for i, p := range e.ImagePlaceholders {
		if p.Width <= 0 || p.Height <= 0 {
			problems = append(problems, fmt.Sprintf("image placeholder %d: width and height must be positive", i))
		}
		if p.HoleShape != "" && !p.HoleShape.Known() {
			problems = append(problems, fmt.Sprintf("image placeholder %d: unknown hole shape %q", i, p.HoleShape))
		}
	}

	for i, t := range e.TextPlaceholders {
		if t.Width <= 0 || t.Height <= 0 {
			problems = append(problems, fmt.Sprintf("text placeholder %d: width and height must be positive", i))
		}
		if t.FontSize <= 0 {
			problems = append(problems, fmt.Sprintf("text placeholder %d: font size must be positive", i))
		}
		if !oneOf(t.TextAlign, "", "left", "center", "right") {
			problems = append(problems, fmt.Sprintf("text placeholder %d: unknown text align %q", i, t.TextAlign))
		}
		if !oneOf(t.TextTransform, "", "none", "uppercase", "lowercase", "capitalize") {
			problems = append(problems, fmt.Sprintf("text placeholder %d: unknown text transform %q", i, t.TextTransform))
		}
		if !oneOf(t.FontStyle, "", "normal", "italic") {
			problems = append(problems, fmt.Sprintf("text placeholder %d: unknown font style %q", i, t.FontStyle))
		}
		if !validWeight(t.FontWeight) {
			problems = append(problems, fmt.Sprintf("text placeholder %d: unknown font weight %q", i, t.FontWeight))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func validWeight(w string) bool {
	switch w {
	case "", "normal", "bold", "bolder", "lighter":
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 100 && n <= 900 && n%100 == 0
}

// IsBold reports whether a CSS font weight renders with the bold face.
func IsBold(weight string) bool {
	switch weight {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(weight)
	return err == nil && n >= 600
}
