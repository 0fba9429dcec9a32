package voice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAISynthesizer implements Synthesizer by rendering each utterance to
// an MP3 clip with the OpenAI speech endpoint
type OpenAISynthesizer struct {
	client  openai.Client
	model   string
	voice   string
	clips   ClipStore
	timeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc

	// OnClip is called with the name of every clip saved, before the
	// utterance completes. It may be nil.
	OnClip func(name string)
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
	Instructions   string `json:"instructions,omitempty"`
}

// NewOpenAISynthesizer creates a new OpenAISynthesizer instance
func NewOpenAISynthesizer(apiKey string, baseURL string, modelName string, voiceName string, clips ClipStore) (*OpenAISynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if clips == nil {
		return nil, fmt.Errorf("clip store is required")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini-tts"
	}
	if voiceName == "" {
		voiceName = "alloy"
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAISynthesizer{
		client:  openai.NewClient(opts...),
		model:   modelName,
		voice:   voiceName,
		clips:   clips,
		timeout: 60 * time.Second,
	}, nil
}

// Speak renders text in the background; onDone fires once the clip is
// saved or rendering failed
func (s *OpenAISynthesizer) Speak(locale string, text string, onDone func(err error)) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()

		name, err := s.render(ctx, locale, text)
		if err == nil {
			slog.Debug("Speech clip saved", "clip", name, "locale", locale)
			if s.OnClip != nil {
				s.OnClip(name)
			}
		}
		onDone(err)
	}()

	return nil
}

// Cancel abandons the utterance being rendered
func (s *OpenAISynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *OpenAISynthesizer) render(ctx context.Context, locale string, text string) (string, error) {
	req := speechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: "mp3",
	}
	// tts-1 models reject instructions
	if !strings.HasPrefix(s.model, "tts-1") {
		req.Instructions = "Speak clearly in the " + locale + " locale."
	}

	var resp *http.Response
	err := s.client.Post(ctx, "audio/speech", req, &resp, option.WithHeader("Accept", "application/octet-stream"))
	if err != nil {
		return "", fmt.Errorf("calling speech API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading speech audio: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("speech API returned no audio")
	}

	return s.clips.Save(uuid.NewString()+".mp3", data)
}
