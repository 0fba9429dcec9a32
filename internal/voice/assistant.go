package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/locale"
)

// Agenda is the read-only view of the delivery set the assistant answers from
type Agenda interface {
	// PendingCount returns the number of pending deliveries
	PendingCount(ctx context.Context) (int, error)
	// NextStop returns the head of the routed or pending list. ok is false
	// when nothing is pending.
	NextStop(ctx context.Context) (rec address.Record, ok bool, err error)
}

// Assistant answers spoken commands about the delivery set
type Assistant struct {
	engine     *Engine
	agenda     Agenda
	classifier *Classifier
	timeout    time.Duration

	mu       sync.Mutex
	language locale.Language
}

// NewAssistant creates an assistant speaking lang through engine
func NewAssistant(engine *Engine, agenda Agenda, classifier *Classifier, lang locale.Language) *Assistant {
	engine.SetLocale(lang.VoiceLocale())

	return &Assistant{
		engine:     engine,
		agenda:     agenda,
		classifier: classifier,
		timeout:    10 * time.Second,
		language:   lang,
	}
}

// Start begins listening for commands. onError receives session failures;
// it may be nil.
func (a *Assistant) Start(onError func(err error)) error {
	return a.engine.Start(a.handle, func(err error) {
		if onError != nil {
			onError(err)
		}
	})
}

// Stop stops listening
func (a *Assistant) Stop() {
	a.engine.Stop()
}

// Language returns the active language
func (a *Assistant) Language() locale.Language {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.language
}

// SetLanguage switches both the command keywords and the voice locale
func (a *Assistant) SetLanguage(lang locale.Language) {
	a.mu.Lock()
	a.language = lang
	a.mu.Unlock()

	a.engine.SetLocale(lang.VoiceLocale())
}

// Reply classifies an utterance and builds the spoken answer.
//
// Repeat reads the current head of the list again, exactly like Next; no
// previously spoken delivery is remembered.
func (a *Assistant) Reply(ctx context.Context, utterance string) (Intent, string) {
	lang := a.Language()
	r := repliesFor(lang)
	intent := a.classifier.Classify(lang, utterance)

	switch intent {
	case Count:
		n, err := a.agenda.PendingCount(ctx)
		if err != nil {
			slog.Error("Failed to count pending deliveries", "error", err)
			return intent, r.failure
		}
		return intent, r.count(n)

	case Next, Repeat:
		rec, ok, err := a.agenda.NextStop(ctx)
		if err != nil {
			slog.Error("Failed to find next delivery", "error", err)
			return intent, r.failure
		}
		if !ok {
			return intent, r.noneLeft
		}
		return intent, r.stop(rec)

	default:
		return intent, r.unrecognized
	}
}

func (a *Assistant) handle(utterance string) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	intent, reply := a.Reply(ctx, utterance)
	slog.Info("Voice command", "utterance", utterance, "intent", intent)

	if err := a.engine.Speak(reply); err != nil && !errors.Is(err, ErrEngineClosed) {
		slog.Warn("Failed to speak reply", "error", err)
	}
}
