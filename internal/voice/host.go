package voice

// SessionEvents are the callbacks a recognition session reports through.
// They may be called from any goroutine, including from inside
// StartSession, Stop or Abort.
type SessionEvents struct {
	OnResult func(text string)
	OnError  func(err error)
	OnEnd    func()
}

// Session is one single-shot recognition session. OnEnd fires once after
// the session stops for any reason.
type Session interface {
	// Stop ends the session, delivering any pending result first
	Stop()
	// Abort ends the session and discards pending results
	Abort()
}

// Recognizer defines the interface for a host speech recognizer
type Recognizer interface {
	// StartSession begins listening in locale. An error wrapping
	// ErrRecognitionUnavailable means the host can no longer listen at all.
	StartSession(locale string, events SessionEvents) (Session, error)
}

// Synthesizer defines the interface for a host speech synthesizer
type Synthesizer interface {
	// Speak starts saying text in locale and calls onDone exactly once when
	// the utterance finishes, fails or is cancelled
	Speak(locale string, text string, onDone func(err error)) error
	// Cancel silences the current utterance, if any
	Cancel()
}
