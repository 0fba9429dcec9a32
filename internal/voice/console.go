package voice

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// LineRecognizer is a Recognizer that treats each line of a reader as one
// utterance. It lets the assistant run in a terminal.
type LineRecognizer struct {
	lines chan string
	// unread holds lines a stopped session took off lines, for the next
	// session to receive first
	unread chan string
	done   chan struct{}
	err    error
}

// NewLineRecognizer starts reading r in the background
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	l := &LineRecognizer{
		lines:  make(chan string),
		unread: make(chan string, 16),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(l.done)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			l.lines <- line
		}
		l.err = scanner.Err()
	}()

	return l
}

// StartSession waits for the next line in the background. Once the reader
// is exhausted it fails with ErrRecognitionUnavailable.
func (l *LineRecognizer) StartSession(_ string, events SessionEvents) (Session, error) {
	select {
	case <-l.done:
		if len(l.unread) > 0 {
			break
		}
		if l.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecognitionUnavailable, l.err)
		}
		return nil, fmt.Errorf("%w: input closed", ErrRecognitionUnavailable)
	default:
	}

	s := &lineSession{stop: make(chan struct{})}
	go s.run(l, events)
	return s, nil
}

type lineSession struct {
	once sync.Once
	stop chan struct{}
}

func (s *lineSession) run(l *LineRecognizer, events SessionEvents) {
	defer events.OnEnd()

	select {
	case line := <-l.unread:
		s.deliver(l, line, events)
		return
	default:
	}

	select {
	case <-s.stop:
	case line := <-l.unread:
		s.deliver(l, line, events)
	case line := <-l.lines:
		s.deliver(l, line, events)
	case <-l.done:
		select {
		case line := <-l.unread:
			s.deliver(l, line, events)
		default:
		}
	}
}

// deliver reports line unless the session was stopped while receiving it,
// in which case the line goes back for the next session
func (s *lineSession) deliver(l *LineRecognizer, line string, events SessionEvents) {
	select {
	case <-s.stop:
		select {
		case l.unread <- line:
		default:
		}
	default:
		events.OnResult(line)
	}
}

func (s *lineSession) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *lineSession) Abort() {
	s.Stop()
}

// TextSynthesizer is a Synthesizer that writes each utterance as a line
type TextSynthesizer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextSynthesizer creates a synthesizer writing to w
func NewTextSynthesizer(w io.Writer) *TextSynthesizer {
	return &TextSynthesizer{w: w}
}

// Speak writes text and completes immediately
func (t *TextSynthesizer) Speak(locale string, text string, onDone func(err error)) error {
	t.mu.Lock()
	_, err := fmt.Fprintf(t.w, "[%s] %s\n", locale, text)
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("writing utterance: %w", err)
	}

	onDone(nil)
	return nil
}

// Cancel does nothing; writes complete synchronously
func (t *TextSynthesizer) Cancel() {}
