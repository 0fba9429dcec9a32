package label

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/lexicon"
	"github.com/zombor/logiflow/internal/scanning"
)

var (
	// ErrInputMissing is returned when a scan carries no image
	ErrInputMissing = errors.New("no image supplied")

	// ErrExtractionEmpty is returned when OCR finds no text, or only noise
	ErrExtractionEmpty = errors.New("no text detected on label")

	// ErrImageDecode is returned when the image payload is not valid base64
	ErrImageDecode = errors.New("decoding image")

	// ErrRecognition wraps failures of the OCR collaborator
	ErrRecognition = errors.New("recognizing text")
)

// DefaultTimeout bounds one scan from OCR through extraction
const DefaultTimeout = 120 * time.Second

// Result is the outcome of one scan. The debug fields exist for
// troubleshooting and are never persisted.
type Result struct {
	address.Record
	RawText string   `json:"debugRawText,omitempty"`
	Lines   []string `json:"debugLines,omitempty"`
}

// Pipeline turns a label photo into an address record
type Pipeline struct {
	ocr        scanning.OCR
	extractor  scanning.Extractor
	normalizer *Normalizer
	fields     *FieldExtractor
	timeout    time.Duration
}

// NewPipeline wires the OCR and extraction collaborators with the lexicon.
// A zero timeout means DefaultTimeout.
func NewPipeline(ocr scanning.OCR, extractor scanning.Extractor, lex *lexicon.Lexicon, timeout time.Duration) (*Pipeline, error) {
	normalizer, err := NewNormalizer(lex)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Pipeline{
		ocr:        ocr,
		extractor:  extractor,
		normalizer: normalizer,
		fields:     NewFieldExtractor(lex),
		timeout:    timeout,
	}, nil
}

// Scan decodes a base64 label image (a data: URL is accepted), reads it and
// resolves the recipient address
func (p *Pipeline) Scan(ctx context.Context, imageBase64 string, contentType string) (*Result, error) {
	imageData, contentType, err := decodeImage(imageBase64, contentType)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.ocr.Recognize(ctx, imageData, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecognition, err)
	}
	if text == nil {
		return nil, ErrExtractionEmpty
	}
	slog.Debug("Label recognized", "chars", len(text.Text), "lines", len(text.Lines), "elapsed", time.Since(start))

	if strings.TrimSpace(text.Text) == "" && len(text.Lines) == 0 {
		return nil, ErrExtractionEmpty
	}

	return p.ResolveText(ctx, *text)
}

// ResolveText runs normalization, both extractors and the merge on text
// that has already been recognized
func (p *Pipeline) ResolveText(ctx context.Context, text scanning.ExtractedText) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cleaned := p.normalizer.Normalize(text)
	if cleaned.Empty() {
		return nil, fmt.Errorf("%w: label holds only sender or tracking text", ErrExtractionEmpty)
	}

	var (
		fallbacks Fallbacks
		raw       *scanning.AddressData
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fallbacks = p.fields.Extract(cleaned)
		return nil
	})
	g.Go(func() error {
		var err error
		raw, err = p.extractor.ExtractAddress(gctx, cleaned.Text)
		if err == nil && raw == nil {
			err = scanning.ErrExtractionServiceEmpty
		}
		if err != nil {
			return fmt.Errorf("extracting address: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Record:  Merge(*raw, fallbacks),
		RawText: cleaned.Text,
		Lines:   cleaned.Lines,
	}, nil
}

// decodeImage accepts plain base64 or a data: URL, whose media type is used
// when contentType is empty
func decodeImage(imageBase64, contentType string) ([]byte, string, error) {
	payload := strings.TrimSpace(imageBase64)
	if payload == "" {
		return nil, "", ErrInputMissing
	}

	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("%w: malformed data URL", ErrImageDecode)
		}
		if contentType == "" {
			contentType, _, _ = strings.Cut(meta, ";")
		}
		payload = data
	}

	imageData, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrImageDecode, err)
	}
	if len(imageData) == 0 {
		return nil, "", ErrInputMissing
	}

	return imageData, contentType, nil
}
