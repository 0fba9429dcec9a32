package voice

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrRecognitionUnavailable is returned when the host cannot recognize speech
	ErrRecognitionUnavailable = errors.New("speech recognition unavailable")

	// ErrSynthesisUnavailable is returned when the host cannot synthesize speech
	ErrSynthesisUnavailable = errors.New("speech synthesis unavailable")

	// ErrRecognitionSession wraps a single failed recognition session. The
	// engine keeps listening after reporting it.
	ErrRecognitionSession = errors.New("recognition session failed")

	// ErrEngineClosed is returned by calls made after Close
	ErrEngineClosed = errors.New("voice engine closed")
)

// DefaultRestartDelay is how long the engine waits before retrying a
// recognition session that failed to start
const DefaultRestartDelay = 250 * time.Millisecond

// State is the engine mode
type State int32

const (
	Idle State = iota
	Listening
	Speaking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Speaking:
		return "speaking"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Engine coordinates a recognizer and a synthesizer so that they are never
// active together. Continuous listening is built by restarting single-shot
// sessions for as long as listening is wanted.
//
// All state is owned by one loop goroutine; host callbacks and method calls
// are turned into events on that loop. Result and error callbacks run on a
// separate goroutine, in order, and may call back into the engine.
type Engine struct {
	recognizer   Recognizer
	synthesizer  Synthesizer
	restartDelay time.Duration

	loop      *queue
	callbacks *queue
	done      chan struct{}
	closeOnce sync.Once
	state     atomic.Int32

	// owned by the loop
	locale      string
	desired     bool
	mode        State
	session     Session
	sessionID   uint64
	utteranceID uint64
	onResult    func(text string)
	onError     func(err error)
}

// NewEngine starts an engine. Either host may be nil when the platform
// lacks it; the matching calls then fail with an unavailable error.
func NewEngine(recognizer Recognizer, synthesizer Synthesizer, locale string) *Engine {
	e := &Engine{
		recognizer:   recognizer,
		synthesizer:  synthesizer,
		restartDelay: DefaultRestartDelay,
		loop:         newQueue(),
		callbacks:    newQueue(),
		done:         make(chan struct{}),
		locale:       locale,
	}

	go e.loop.run(e.done)
	go e.callbacks.run(e.done)

	return e
}

// State returns the current mode
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Start turns continuous listening on. Each recognized utterance is passed
// to onResult; session failures go to onError and listening resumes.
func (e *Engine) Start(onResult func(text string), onError func(err error)) error {
	if e.recognizer == nil {
		return ErrRecognitionUnavailable
	}

	return e.call(func() error {
		e.onResult = onResult
		e.onError = onError
		e.desired = true

		if e.mode != Idle {
			return nil
		}
		if err := e.listen(); err != nil {
			e.desired = false
			if errors.Is(err, ErrRecognitionUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrRecognitionSession, err)
		}
		return nil
	})
}

// Stop turns continuous listening off and aborts the active session. An
// utterance already being spoken is allowed to finish. Stop is idempotent.
func (e *Engine) Stop() {
	_ = e.call(func() error {
		e.desired = false
		if e.mode == Listening {
			e.endSession(true)
			e.setMode(Idle)
		}
		return nil
	})
}

// Speak says text. Recognition is stopped before synthesis begins and
// resumes after it completes if listening is still wanted. Speaking while
// already speaking replaces the current utterance.
func (e *Engine) Speak(text string) error {
	if e.synthesizer == nil {
		return ErrSynthesisUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	return e.call(func() error {
		return e.speak(text)
	})
}

// SetLocale changes the locale used by the next session and utterance
func (e *Engine) SetLocale(locale string) {
	_ = e.call(func() error {
		e.locale = locale
		return nil
	})
}

// Close stops listening, silences synthesis and ends the loop
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		finished := make(chan struct{})
		e.loop.push(func() {
			e.shutdown()
			close(finished)
		})
		<-finished
		close(e.done)
	})
	return nil
}

// call runs fn on the loop and waits for its result
func (e *Engine) call(fn func() error) error {
	select {
	case <-e.done:
		return ErrEngineClosed
	default:
	}

	reply := make(chan error, 1)
	e.loop.push(func() { reply <- fn() })

	select {
	case err := <-reply:
		return err
	case <-e.done:
		return ErrEngineClosed
	}
}

func (e *Engine) setMode(mode State) {
	if e.mode != mode {
		slog.Debug("Voice state changed", "from", e.mode, "to", mode)
	}
	e.mode = mode
	e.state.Store(int32(mode))
}

func (e *Engine) listen() error {
	e.sessionID++
	id := e.sessionID

	session, err := e.recognizer.StartSession(e.locale, SessionEvents{
		OnResult: func(text string) {
			e.loop.push(func() { e.sessionResult(id, text) })
		},
		OnError: func(err error) {
			e.loop.push(func() { e.sessionError(id, err) })
		},
		OnEnd: func() {
			e.loop.push(func() { e.sessionEnded(id) })
		},
	})
	if err != nil {
		e.setMode(Idle)
		return err
	}

	e.session = session
	e.setMode(Listening)
	return nil
}

// endSession stops or aborts the active session. Its later events carry a
// superseded id and are dropped.
func (e *Engine) endSession(abort bool) {
	session := e.session
	e.session = nil
	e.sessionID++

	if session == nil {
		return
	}
	if abort {
		session.Abort()
	} else {
		session.Stop()
	}
}

// resume restarts listening when it is wanted and nothing else is active
func (e *Engine) resume() {
	if !e.desired || e.mode != Idle {
		return
	}

	err := e.listen()
	if err == nil {
		return
	}

	if errors.Is(err, ErrRecognitionUnavailable) {
		e.desired = false
		e.report(err)
		return
	}

	e.report(fmt.Errorf("%w: %v", ErrRecognitionSession, err))

	generation := e.sessionID
	time.AfterFunc(e.restartDelay, func() {
		e.loop.push(func() {
			if e.sessionID == generation {
				e.resume()
			}
		})
	})
}

func (e *Engine) speak(text string) error {
	switch e.mode {
	case Listening:
		e.endSession(false)
	case Speaking:
		e.synthesizer.Cancel()
	}

	e.utteranceID++
	id := e.utteranceID
	e.setMode(Speaking)

	err := e.synthesizer.Speak(e.locale, text, func(err error) {
		e.loop.push(func() { e.speechDone(id, err) })
	})
	if err != nil {
		e.utteranceID++
		e.setMode(Idle)
		e.resume()
		return fmt.Errorf("speaking: %w", err)
	}

	return nil
}

func (e *Engine) sessionResult(id uint64, text string) {
	if id != e.sessionID || e.mode != Listening {
		slog.Debug("Dropping stale recognition result", "session", id)
		return
	}

	if cb := e.onResult; cb != nil {
		e.callbacks.push(func() { cb(text) })
	}
}

func (e *Engine) sessionError(id uint64, err error) {
	if id != e.sessionID || e.mode != Listening {
		return
	}

	e.endSession(true)
	e.setMode(Idle)
	e.report(fmt.Errorf("%w: %v", ErrRecognitionSession, err))
	e.resume()
}

func (e *Engine) sessionEnded(id uint64) {
	if id != e.sessionID || e.mode != Listening {
		return
	}

	e.session = nil
	e.setMode(Idle)
	e.resume()
}

func (e *Engine) speechDone(id uint64, err error) {
	if id != e.utteranceID || e.mode != Speaking {
		return
	}

	if err != nil {
		e.report(fmt.Errorf("speaking: %w", err))
	}

	e.setMode(Idle)
	e.resume()
}

func (e *Engine) report(err error) {
	slog.Warn("Voice engine error", "error", err)
	if cb := e.onError; cb != nil {
		e.callbacks.push(func() { cb(err) })
	}
}

func (e *Engine) shutdown() {
	e.desired = false

	switch e.mode {
	case Listening:
		e.endSession(true)
	case Speaking:
		e.utteranceID++
		e.synthesizer.Cancel()
	}

	e.setMode(Idle)
}
