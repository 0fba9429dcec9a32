package label

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zombor/logiflow/internal/lexicon"
	"github.com/zombor/logiflow/internal/scanning"
)

// CleanedText is label text with noise removed. Lines never contain runs of
// whitespace and Text is Lines joined by newlines.
type CleanedText struct {
	Text  string
	Lines []string
}

// Extracted returns the cleaned text in the shape OCR produces, so it can
// be normalized again
func (c CleanedText) Extracted() scanning.ExtractedText {
	return scanning.ExtractedText{Text: c.Text, Lines: append([]string(nil), c.Lines...)}
}

// Empty reports whether nothing survived normalization
func (c CleanedText) Empty() bool {
	return len(c.Lines) == 0
}

// Normalizer strips sender, tracking and promotional noise from label text
type Normalizer struct {
	qrTail     *regexp.Regexp
	lineMarker *regexp.Regexp
}

// NewNormalizer compiles the noise markers of a lexicon
func NewNormalizer(lex *lexicon.Lexicon) (*Normalizer, error) {
	n := &Normalizer{}

	if len(lex.Noise.QRMarkers) > 0 {
		re, err := regexp.Compile(`(?is)\b(?:` + strings.Join(lex.Noise.QRMarkers, "|") + `)\b.*`)
		if err != nil {
			return nil, fmt.Errorf("compiling QR markers: %w", err)
		}
		n.qrTail = re
	}

	if len(lex.Noise.LineMarkers) > 0 {
		re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(lex.Noise.LineMarkers, "|") + `)\b.*`)
		if err != nil {
			return nil, fmt.Errorf("compiling line markers: %w", err)
		}
		n.lineMarker = re
	}

	return n, nil
}

// Normalize removes everything from a QR marker to the end of the text,
// collapses whitespace line by line and then cuts each line at its first
// line marker. Markers never match across lines, so
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(in scanning.ExtractedText) CleanedText {
	text := in.Text
	if strings.TrimSpace(text) == "" {
		text = strings.Join(in.Lines, "\n")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if n.qrTail != nil {
		text = n.qrTail.ReplaceAllString(text, "")
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if n.lineMarker != nil {
			if loc := n.lineMarker.FindStringIndex(line); loc != nil {
				line = strings.TrimSpace(line[:loc[0]])
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}

	return CleanedText{Text: strings.Join(lines, "\n"), Lines: lines}
}
