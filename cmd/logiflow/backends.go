package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zombor/logiflow/internal/fallback"
	"github.com/zombor/logiflow/internal/scanning"
)

type backendConfig struct {
	ocr          string
	ocrLanguages string
	extractor    string

	openAIKey      string
	openAIURL      string
	openAIModel    string
	geminiKey      string
	geminiModel    string
	anthropicKey   string
	anthropicURL   string
	anthropicModel string
	ollamaURL      string
	ollamaModel    string
}

// backends holds the OCR and extraction collaborators of the label pipeline
type backends struct {
	ocr       scanning.OCR
	extractor scanning.Extractor
	closers   []io.Closer
}

// Close releases every backend client
func (b *backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// newBackends builds the configured OCR engine and address extractor. A
// Gemini client is shared when both roles select it.
func newBackends(cfg backendConfig) (*backends, error) {
	b := &backends{}

	var gemini *scanning.Gemini
	geminiClient := func() (*scanning.Gemini, error) {
		if gemini != nil {
			return gemini, nil
		}
		apiKey := fallback.FirstNonEmpty(cfg.geminiKey, os.Getenv("GEMINI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
		}
		slog.Info("Initializing Gemini...", "model", cfg.geminiModel)
		g, err := scanning.NewGemini(apiKey, cfg.geminiModel)
		if err != nil {
			return nil, err
		}
		gemini = g
		b.closers = append(b.closers, g)
		return g, nil
	}

	switch cfg.ocr {
	case "tesseract":
		languages := splitList(cfg.ocrLanguages)
		slog.Info("Initializing Tesseract OCR...", "languages", languages)
		t := scanning.NewTesseract(languages...)
		b.ocr = t
		b.closers = append(b.closers, t)
	case "gemini":
		g, err := geminiClient()
		if err != nil {
			return nil, err
		}
		b.ocr = g
	default:
		return nil, fmt.Errorf("invalid OCR backend %q (valid: tesseract or gemini)", cfg.ocr)
	}

	switch cfg.extractor {
	case "openai":
		apiKey := fallback.FirstNonEmpty(cfg.openAIKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			b.Close()
			return nil, fmt.Errorf("OpenAI API key is required. Set --openai-key flag or OPENAI_API_KEY environment variable")
		}
		slog.Info("Initializing OpenAI extractor...", "model", cfg.openAIModel)
		o, err := scanning.NewOpenAI(apiKey, cfg.openAIURL, cfg.openAIModel)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.extractor = o
		b.closers = append(b.closers, o)
	case "gemini":
		g, err := geminiClient()
		if err != nil {
			b.Close()
			return nil, err
		}
		b.extractor = g
	case "anthropic":
		apiKey := fallback.FirstNonEmpty(cfg.anthropicKey, os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			b.Close()
			return nil, fmt.Errorf("Anthropic API key is required. Set --anthropic-key flag or ANTHROPIC_API_KEY environment variable")
		}
		slog.Info("Initializing Anthropic extractor...", "model", cfg.anthropicModel)
		a, err := scanning.NewAnthropic(apiKey, cfg.anthropicURL, cfg.anthropicModel)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.extractor = a
		b.closers = append(b.closers, a)
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		o, err := scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.extractor = o
		b.closers = append(b.closers, o)
	default:
		b.Close()
		return nil, fmt.Errorf("invalid extractor %q (valid: openai, gemini, anthropic or ollama)", cfg.extractor)
	}

	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
