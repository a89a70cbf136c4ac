// Package protocol holds the line-level view of the editor's MCP stream.
//
// Frames are newline-delimited JSON objects. The supervisor never parses
// them: a line is a frame when its first byte is '{'. A diagnostic line that
// happens to start with '{' is misclassified as a frame; that is accepted.
package protocol

// Terminator ends every line on both sides of the bridge.
const Terminator = '\n'

// IsFrame reports whether a complete line (without its terminator) should be
// forwarded on the protocol stream.
func IsFrame(line []byte) bool {
	return len(line) > 0 && line[0] == '{'
}
