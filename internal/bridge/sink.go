package bridge

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink is the optional diagnostic mirror. A nil *Sink is valid and discards
// everything. Write failures are swallowed; the relay never stops because
// the log is unhappy.
type Sink struct {
	mu     sync.Mutex
	w      io.WriteCloser
	closed bool
}

// NewSink wraps w.
func NewSink(w io.WriteCloser) *Sink {
	return &Sink{w: w}
}

// OpenSink creates or truncates the log file at path.
func OpenSink(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log sink: %w", err)
	}
	return NewSink(f), nil
}

// Write mirrors p. It always reports success so it can sit behind io.Copy
// and friends.
func (s *Sink) Write(p []byte) (int, error) {
	if s == nil {
		return len(p), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		_, _ = s.w.Write(p)
	}
	return len(p), nil
}

// WriteLine mirrors line followed by a terminator in a single write.
func (s *Sink) WriteLine(line []byte) {
	if s == nil {
		return
	}
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, _ = s.Write(buf)
}

// Printf writes a formatted diagnostic note.
func (s *Sink) Printf(format string, args ...any) {
	if s == nil {
		return
	}
	_, _ = s.Write([]byte(fmt.Sprintf(format, args...)))
}

// Close releases the underlying writer once. Later calls, and writes after
// close, are no-ops. Close errors are dropped.
func (s *Sink) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	_ = s.w.Close()
}
