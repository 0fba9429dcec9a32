package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.1"
)

// Ollama extracts addresses with a model served by a local Ollama daemon.
// Text models with good JSON discipline work best (llama3.1, qwen2.5, mistral).
type Ollama struct {
	endpoint string
	model    string
	http     *http.Client
}

func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if modelName == "" {
		modelName = defaultOllamaModel
	}
	return &Ollama{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/chat",
		model:    modelName,
		// first request after a cold start loads the weights
		http: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

type ollamaTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string       `json:"model"`
	Messages []ollamaTurn `json:"messages"`
	Format   string       `json:"format"`
	Stream   bool         `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
	} `json:"options"`
}

type ollamaReply struct {
	Message ollamaTurn `json:"message"`
	Done    bool       `json:"done"`
}

// ExtractAddress sends cleaned label text to the model in JSON mode
func (o *Ollama) ExtractAddress(ctx context.Context, text string) (*AddressData, error) {
	content, err := o.chat(ctx,
		ollamaTurn{Role: "system", Content: labelExtractionPrompt},
		ollamaTurn{Role: "user", Content: text},
	)
	if err != nil {
		return nil, err
	}
	if content = responseText(content); content == "" {
		return nil, ErrExtractionServiceEmpty
	}
	return parseAddressJSON(content)
}

func (o *Ollama) chat(ctx context.Context, turns ...ollamaTurn) (string, error) {
	payload := ollamaRequest{Model: o.model, Messages: turns, Format: "json"}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var reply ollamaReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("decoding ollama reply: %w", err)
	}
	return reply.Message.Content, nil
}

// Close is a no-op; the HTTP client holds no resources worth releasing
func (o *Ollama) Close() error { return nil }
