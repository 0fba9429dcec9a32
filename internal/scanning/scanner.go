package scanning

import (
	"context"
	"errors"
)

var (
	// ErrExtractionServiceEmpty is returned when the text-generation service
	// answers with no content
	ErrExtractionServiceEmpty = errors.New("extraction service returned no content")

	// ErrExtractionParse is returned when the service answer holds no valid
	// JSON object
	ErrExtractionParse = errors.New("no valid JSON object in extraction response")
)

// ExtractedText is the transcription of a label photo
type ExtractedText struct {
	Text  string   `json:"text"`
	Lines []string `json:"lines"`
}

// AddressData is the structured extraction of a label. Every field is
// present; fields the service omitted are empty strings.
type AddressData struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
}

// OCR defines the interface for reading text out of a label image
type OCR interface {
	// Recognize transcribes an image (JPEG, PNG, GIF, WebP, HEIC or PDF)
	Recognize(ctx context.Context, imageData []byte, contentType string) (*ExtractedText, error)
	// Close releases resources
	Close() error
}

// Extractor defines the interface for structured address extraction
type Extractor interface {
	// ExtractAddress reads the recipient fields out of cleaned label text
	ExtractAddress(ctx context.Context, text string) (*AddressData, error)
	// Close releases resources
	Close() error
}
