// Package bridge relays the supervisor's stdio to and from the editor.
//
// Two flows run for the life of the child:
//   - stdin relay: parent stdin is copied verbatim to the child, then
//     mirrored to the diagnostic sink.
//   - stdout pump: child output is reassembled into lines with a
//     LineAccumulator. Lines starting with '{' are protocol frames and go to
//     the parent's stdout; everything else is diagnostic text and only reaches
//     the sink.
//
// The accumulator is owned by the stdout flow. Each chunk is processed to
// completion before the next read, so frames leave in the order their lines
// completed. The sink is shared by both flows and serializes its own writes.
package bridge
