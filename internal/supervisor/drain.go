package supervisor

import (
	"io"
	"sync"
	"time"
)

// outputWatch records when the stdout pump is parked in a read. A read only
// blocks once the pipe is empty, so time spent blocked is time with nothing
// left to drain.
type outputWatch struct {
	r io.Reader

	mu      sync.Mutex
	reading bool
	since   time.Time
}

func (w *outputWatch) Read(p []byte) (int, error) {
	w.mu.Lock()
	w.reading = true
	w.since = time.Now()
	w.mu.Unlock()

	n, err := w.r.Read(p)

	w.mu.Lock()
	w.reading = false
	w.mu.Unlock()
	return n, err
}

// idleFor reports how long the pump has been waiting for output, counting
// no earlier than from. It is zero while the pump is busy forwarding.
func (w *outputWatch) idleFor(from, now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.reading {
		return 0
	}
	start := w.since
	if start.Before(from) {
		start = from
	}
	return now.Sub(start)
}

func pollInterval(grace time.Duration) time.Duration {
	if d := grace / 10; d > 5*time.Millisecond {
		return d
	}
	return 5 * time.Millisecond
}
