package voice

import (
	"strings"
	"unicode"

	"github.com/zombor/logiflow/internal/lexicon"
	"github.com/zombor/logiflow/internal/locale"
)

// Intent is a classified voice command
type Intent int

const (
	Unrecognized Intent = iota
	Count
	Next
	Repeat
)

// intentOrder is the precedence used when an utterance matches several
// intents
var intentOrder = []Intent{Count, Next, Repeat}

func (i Intent) String() string {
	switch i {
	case Count:
		return "count"
	case Next:
		return "next"
	case Repeat:
		return "repeat"
	default:
		return "unrecognized"
	}
}

// Classifier maps utterances to intents using per-language keyword sets
type Classifier struct {
	keywords map[locale.Language]map[Intent][]string
}

// NewClassifier builds a classifier from the lexicon intents. Languages
// the lexicon omits fall back to English keywords.
func NewClassifier(lex *lexicon.Lexicon) *Classifier {
	c := &Classifier{keywords: map[locale.Language]map[Intent][]string{}}

	for lang, intents := range lex.Intents {
		sets := map[Intent][]string{}
		for _, intent := range intentOrder {
			for _, kw := range intents[intent.String()] {
				if kw = normalizeUtterance(kw); kw != "" {
					sets[intent] = append(sets[intent], kw)
				}
			}
		}
		c.keywords[locale.Language(lang)] = sets
	}

	return c
}

// Classify returns the first intent, in Count, Next, Repeat order, with a
// keyword starting at a word boundary of the utterance. Keywords may end
// mid-word so inflections such as "próximas" still match.
func (c *Classifier) Classify(lang locale.Language, utterance string) Intent {
	sets, ok := c.keywords[lang]
	if !ok {
		sets = c.keywords[locale.Fallback]
	}

	text := " " + normalizeUtterance(utterance)
	for _, intent := range intentOrder {
		for _, kw := range sets[intent] {
			if strings.Contains(text, " "+kw) {
				return intent
			}
		}
	}

	return Unrecognized
}

// normalizeUtterance folds case and accents, drops punctuation and
// collapses whitespace
func normalizeUtterance(s string) string {
	folded := lexicon.Fold(s)
	folded = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return -1
		default:
			return ' '
		}
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}
