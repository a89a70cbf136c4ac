package bridge

import (
	"errors"
	"fmt"
	"io"

	"github.com/mattjoyce/mcprunner/internal/protocol"
)

// chunkSize bounds a single read from either side.
const chunkSize = 32 * 1024

// PumpStats counts what the stdout pump did with the child's lines.
type PumpStats struct {
	Frames  int // forwarded to the protocol stream
	Dropped int // diagnostic lines kept off the protocol stream
}

// RelayStdin copies src to child verbatim, mirroring every chunk to sink
// after it reached the child. child is closed when src is exhausted or the
// child stops accepting input.
func RelayStdin(src io.Reader, child io.WriteCloser, sink *Sink) error {
	defer child.Close()

	buf := make([]byte, chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := child.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write child stdin: %w", werr)
			}
			_, _ = sink.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
}

// PumpStdout reads the child's output until EOF, forwarding frames to dst
// and mirroring every complete line to sink. An unterminated tail left at
// EOF is mirrored but never forwarded.
//
// A failed write to dst does not stop the pump: the child keeps getting
// drained so it never blocks on a full pipe, and the first dst error is
// returned once src is exhausted.
func PumpStdout(src io.Reader, dst io.Writer, sink *Sink) (PumpStats, error) {
	var (
		acc    LineAccumulator
		stats  PumpStats
		dstErr error
	)

	buf := make([]byte, chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			for _, line := range acc.Feed(buf[:n]) {
				if !protocol.IsFrame(line) {
					stats.Dropped++
					sink.WriteLine(line)
					continue
				}
				stats.Frames++
				if dstErr == nil {
					if _, werr := dst.Write(append(line, protocol.Terminator)); werr != nil {
						dstErr = fmt.Errorf("write protocol frame: %w", werr)
					}
				}
				sink.WriteLine(line)
			}
		}
		if errors.Is(err, io.EOF) {
			if tail := acc.Pending(); len(tail) > 0 {
				sink.WriteLine(tail)
			}
			return stats, dstErr
		}
		if err != nil {
			return stats, errors.Join(fmt.Errorf("read child stdout: %w", err), dstErr)
		}
	}
}

// Filter passes only protocol frames from a line-delimited stream. Applying
// it to its own output changes nothing.
func Filter(src io.Reader, dst io.Writer) error {
	_, err := PumpStdout(src, dst, nil)
	return err
}
