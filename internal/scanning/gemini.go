package scanning

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Extractor and OCR interfaces using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	vision *genai.GenerativeModel
}

// NewGemini creates a new Gemini instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(labelExtractionPrompt)},
	}

	vision := client.GenerativeModel(modelName)
	vision.SetTemperature(0)

	return &Gemini{
		client: client,
		model:  model,
		vision: vision,
	}, nil
}

// ExtractAddress sends cleaned label text to Gemini and parses the answer
func (g *Gemini) ExtractAddress(ctx context.Context, text string) (*AddressData, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	content := candidateText(resp)
	if content == "" {
		return nil, ErrExtractionServiceEmpty
	}

	return parseAddressJSON(content)
}

// Recognize transcribes a label image with the vision model
func (g *Gemini) Recognize(ctx context.Context, imageData []byte, contentType string) (*ExtractedText, error) {
	pngData, err := preparePNG(imageData, contentType)
	if err != nil {
		return nil, err
	}

	// genai.ImageData expects just the format suffix, not the MIME type
	resp, err := g.vision.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(labelTranscriptionPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("generating transcription: %w", err)
	}

	text := candidateText(resp)
	return &ExtractedText{Text: text, Lines: splitLines(text)}, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// candidateText joins the text parts of the first candidate
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	return responseText(parts...)
}
