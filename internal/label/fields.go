package label

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/zombor/logiflow/internal/lexicon"
)

// postcodePattern matches a Brazilian CEP: five digits, optional hyphen, three digits
var postcodePattern = regexp.MustCompile(`\b\d{5}-?\d{3}\b`)

// Fallbacks are the literal pattern matches used to backstop fields the
// extraction service left empty
type Fallbacks struct {
	PostalCode string
	District   string
}

// FieldExtractor finds postal code and neighborhood candidates without any
// service call
type FieldExtractor struct {
	words  []string
	marker *regexp.Regexp
}

// NewFieldExtractor builds an extractor from the lexicon's neighborhood words
func NewFieldExtractor(lex *lexicon.Lexicon) *FieldExtractor {
	f := &FieldExtractor{}

	for _, w := range append(append([]string(nil), lex.Neighborhood.Markers...), lex.Neighborhood.Prefixes...) {
		if w = strings.TrimSpace(lexicon.Fold(w)); w != "" {
			f.words = append(f.words, w)
		}
	}

	if len(lex.Neighborhood.Markers) > 0 {
		quoted := make([]string, len(lex.Neighborhood.Markers))
		for i, m := range lex.Neighborhood.Markers {
			quoted[i] = regexp.QuoteMeta(m)
		}
		f.marker = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b[\s:.\-]*`)
	}

	return f
}

// Extract runs both scans over cleaned text
func (f *FieldExtractor) Extract(text CleanedText) Fallbacks {
	return Fallbacks{
		PostalCode: Postcode(text),
		District:   f.Neighborhood(text),
	}
}

// Postcode returns the first postal-code-shaped substring, or ""
func Postcode(text CleanedText) string {
	return postcodePattern.FindString(text.Text)
}

// Neighborhood returns the first line naming a neighborhood, with the first
// marker word such as "Bairro:" removed wherever it sits on the line. Lines
// are matched on whole words after folding case and accents.
func (f *FieldExtractor) Neighborhood(text CleanedText) string {
	for _, line := range text.Lines {
		if !f.mentionsNeighborhood(line) {
			continue
		}

		candidate := line
		if f.marker != nil {
			if loc := f.marker.FindStringIndex(candidate); loc != nil {
				candidate = candidate[:loc[0]] + " " + candidate[loc[1]:]
			}
		}
		if candidate = strings.Join(strings.Fields(candidate), " "); candidate != "" {
			return candidate
		}
	}
	return ""
}

func (f *FieldExtractor) mentionsNeighborhood(line string) bool {
	words := " " + strings.Join(strings.FieldsFunc(lexicon.Fold(line), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ") + " "

	for _, w := range f.words {
		if strings.Contains(words, " "+w+" ") {
			return true
		}
	}
	return false
}
