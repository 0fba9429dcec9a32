package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/zombor/logiflow/internal/lexicon"
	"github.com/zombor/logiflow/internal/locale"
	"github.com/zombor/logiflow/internal/voice"
)

type voiceConfig struct {
	mode        string
	clipsDir    string
	speechModel string
	openAIKey   string
	openAIURL   string
}

// startVoice runs the voice assistant in the terminal: each stdin line is
// one spoken command. Replies are printed, or rendered to MP3 clips in
// openai mode. It returns a nil engine when voice is off.
func startVoice(cfg voiceConfig, agenda voice.Agenda, lex *lexicon.Lexicon, lang locale.Language) (*voice.Engine, error) {
	var synth voice.Synthesizer
	switch cfg.mode {
	case "", "off":
		return nil, nil
	case "console":
		synth = voice.NewTextSynthesizer(os.Stdout)
	case "openai":
		clips, err := voice.NewLocalClipStore(cfg.clipsDir)
		if err != nil {
			return nil, err
		}
		s, err := voice.NewOpenAISynthesizer(cfg.openAIKey, cfg.openAIURL, cfg.speechModel, "", clips)
		if err != nil {
			return nil, err
		}
		s.OnClip = func(name string) {
			slog.Info("Speech clip saved", "path", clips.Path(name))
		}
		synth = s
	default:
		return nil, fmt.Errorf("invalid voice mode %q (valid: off, console or openai)", cfg.mode)
	}

	engine := voice.NewEngine(voice.NewLineRecognizer(os.Stdin), synth, lang.VoiceLocale())
	assistant := voice.NewAssistant(engine, agenda, voice.NewClassifier(lex), lang)

	err := assistant.Start(func(err error) {
		if errors.Is(err, voice.ErrRecognitionUnavailable) {
			slog.Info("Voice input closed", "error", err)
			return
		}
		slog.Warn("Voice recognition error", "error", err)
	})
	if err != nil {
		engine.Close()
		return nil, err
	}

	slog.Info("Voice assistant listening", "mode", cfg.mode, "locale", lang.VoiceLocale())
	return engine, nil
}
