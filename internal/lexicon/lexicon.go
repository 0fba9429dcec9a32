package lexicon

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Lexicon holds the marker words and keyword sets used to read labels and
// classify voice commands
type Lexicon struct {
	Noise        Noise                          `yaml:"noise"`
	Neighborhood Neighborhood                   `yaml:"neighborhood"`
	Geocode      Geocode                        `yaml:"geocode"`
	Intents      map[string]map[string][]string `yaml:"intents"`
}

// Noise lists regular expression fragments for label text that never
// belongs to the recipient address
type Noise struct {
	QRMarkers   []string `yaml:"qr_markers"`
	LineMarkers []string `yaml:"line_markers"`
}

// Neighborhood lists words that identify the district line of a label
type Neighborhood struct {
	Markers  []string `yaml:"markers"`
	Prefixes []string `yaml:"prefixes"`
}

// Geocode lists tokens stripped from street and district before searching
type Geocode struct {
	NoiseTokens []string `yaml:"noise_tokens"`
}

// Default returns the embedded lexicon
func Default() *Lexicon {
	lex, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return lex
}

// Load reads a lexicon file. An empty path returns the embedded default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return Parse(data)
}

// Parse decodes a lexicon document, rejecting unknown keys
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&lex); err != nil {
		return nil, fmt.Errorf("decoding lexicon: %w", err)
	}

	for lang, intents := range lex.Intents {
		for intent, keywords := range intents {
			folded := make([]string, 0, len(keywords))
			for _, k := range keywords {
				if k = strings.TrimSpace(Fold(k)); k != "" {
					folded = append(folded, k)
				}
			}
			lex.Intents[lang][intent] = folded
		}
	}

	return &lex, nil
}

// Fold lowercases s and strips diacritics, so "Próxima" and "proxima"
// compare equal
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
