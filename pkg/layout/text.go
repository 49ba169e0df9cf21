// text.go — Word wrap, vertical truncation and alignment inside a text box.
package layout

import (
	"math"
	"strings"
)

// Ellipsis marks text cut off at the bottom of a box.
const Ellipsis = "…"

// Measurer returns the advance width of s in pixels.
type Measurer func(s string) float64

// TextLine is one laid-out line. X is the left edge after alignment and Y
// the top of the line box, both in canvas pixels.
type TextLine struct {
	Text  string
	X, Y  float64
	Width float64
}

// LayoutText wraps s on word boundaries to fit box.W, keeps as many lines
// as box.H allows at lineHeight (at least one) and ends the last kept line
// with an ellipsis when text was dropped. Words wider than the box are
// broken between runes.
func LayoutText(s string, box Rect, lineHeight float64, align string, measure Measurer) []TextLine {
	if box.Empty() || lineHeight <= 0 || strings.TrimSpace(s) == "" {
		return nil
	}

	var wrapped []string
	for _, para := range strings.Split(s, "\n") {
		wrapped = append(wrapped, wrapWords(para, box.W, measure)...)
	}

	maxLines := max(int(math.Floor(box.H/lineHeight+1e-9)), 1)
	if len(wrapped) > maxLines {
		wrapped = wrapped[:maxLines]
		wrapped[maxLines-1] = withEllipsis(wrapped[maxLines-1], box.W, measure)
	}

	lines := make([]TextLine, 0, len(wrapped))
	for i, text := range wrapped {
		w := measure(text)
		x := box.X
		switch align {
		case "center":
			x += (box.W - w) / 2
		case "right":
			x += box.W - w
		}
		lines = append(lines, TextLine{Text: text, X: x, Y: box.Y + float64(i)*lineHeight, Width: w})
	}
	return lines
}

// wrapWords breaks one paragraph into lines no wider than maxW.
func wrapWords(para string, maxW float64, measure Measurer) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(candidate) <= maxW {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		// A word that alone overflows is split by rune.
		pieces := breakWord(word, maxW, measure)
		lines = append(lines, pieces[:len(pieces)-1]...)
		current = pieces[len(pieces)-1]
	}
	return append(lines, current)
}

// breakWord splits word into runs no wider than maxW. Every run holds at
// least one rune.
func breakWord(word string, maxW float64, measure Measurer) []string {
	if measure(word) <= maxW {
		return []string{word}
	}
	var parts []string
	var run []rune
	for _, r := range word {
		next := append(run, r)
		if len(run) > 0 && measure(string(next)) > maxW {
			parts = append(parts, string(run))
			next = []rune{r}
		}
		run = next
	}
	return append(parts, string(run))
}

// withEllipsis trims line from the end until line+Ellipsis fits maxW.
func withEllipsis(line string, maxW float64, measure Measurer) string {
	runes := []rune(strings.TrimRight(line, " "))
	for len(runes) > 0 && measure(string(runes)+Ellipsis) > maxW {
		runes = runes[:len(runes)-1]
	}
	return strings.TrimRight(string(runes), " ") + Ellipsis
}
