package hazard

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// labelClasses maps normalized free-text classification labels to classes.
// Keys are upper-cased, diacritic-stripped forms.
var labelClasses = map[string]int{
	"MUY BAJA": ClassVeryLow,
	"BAJA":     ClassLow,
	"MEDIA":    ClassMedium,
	"ALTA":     ClassHigh,
	"MUY ALTA": ClassVeryHigh,
}

var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeLabel folds a free-text classification label to its canonical form:
// trimmed, upper-cased, diacritics removed ("Amenaza Crítica" handling comes
// from field sheets typed with and without accents).
func NormalizeLabel(label string) string {
	folded, _, err := transform.String(stripDiacritics, label)
	if err != nil {
		folded = label
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}

// ClassFromLabel maps a free-text classification label to a hazard class.
// The second return is false when the label is unknown.
func ClassFromLabel(label string) (int, bool) {
	c, ok := labelClasses[NormalizeLabel(label)]
	return c, ok
}
