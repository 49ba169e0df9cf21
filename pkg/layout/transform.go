// transform.go — CSS-like text-transform applied before drawing.
package layout

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ApplyTransform returns s transformed per a CSS text-transform keyword.
// Unknown keywords and "none" return s unchanged. The input is never
// modified; callers keep the raw user text.
func ApplyTransform(s, transform string) string {
	// Casers carry state, so a fresh one is built per call. Case mapping
	// can decompose (İ lowers to i + U+0307), so results are recomposed.
	switch transform {
	case "uppercase":
		return norm.NFC.String(cases.Upper(language.Und).String(s))
	case "lowercase":
		return norm.NFC.String(cases.Lower(language.Und).String(s))
	case "capitalize":
		return cases.Title(language.Und, cases.NoLower).String(s)
	default:
		return s
	}
}
