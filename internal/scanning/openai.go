package scanning

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI implements the Extractor interface using the chat completions API
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a new OpenAI extractor. An empty baseURL uses the
// public endpoint.
func NewOpenAI(apiKey, baseURL, modelName string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  modelName,
	}, nil
}

// ExtractAddress sends cleaned label text to the model at temperature 0
func (o *OpenAI) ExtractAddress(ctx context.Context, text string) (*AddressData, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(0),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(labelExtractionPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat completion: %w", err)
	}

	if len(completion.Choices) == 0 || responseText(completion.Choices[0].Message.Content) == "" {
		return nil, ErrExtractionServiceEmpty
	}

	return parseAddressJSON(completion.Choices[0].Message.Content)
}

// Close is a no-op for the HTTP-backed client
func (o *OpenAI) Close() error {
	return nil
}
