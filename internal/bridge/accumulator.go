package bridge

import (
	"bytes"

	"github.com/mattjoyce/mcprunner/internal/protocol"
)

// LineAccumulator reassembles lines from chunks whose boundaries are
// unrelated to line boundaries. Between calls it holds only the bytes of the
// current incomplete line.
type LineAccumulator struct {
	buf []byte
}

// Feed appends chunk and returns every line it completes, in order, without
// terminators. The trailing segment (empty when chunk ended on a terminator)
// is kept for the next call and is never returned here.
func (a *LineAccumulator) Feed(chunk []byte) [][]byte {
	a.buf = append(a.buf, chunk...)

	var lines [][]byte
	start := 0
	for {
		i := bytes.IndexByte(a.buf[start:], protocol.Terminator)
		if i < 0 {
			break
		}
		line := make([]byte, i)
		copy(line, a.buf[start:start+i])
		lines = append(lines, line)
		start += i + 1
	}
	if start > 0 {
		a.buf = append(a.buf[:0], a.buf[start:]...)
	}
	return lines
}

// Pending returns a copy of the incomplete line held so far.
func (a *LineAccumulator) Pending() []byte {
	return bytes.Clone(a.buf)
}

// Reset drops the pending remainder.
func (a *LineAccumulator) Reset() {
	a.buf = a.buf[:0]
}
