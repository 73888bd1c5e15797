// Package frame implements the plant's cyclic wire framing.
//
// A frame is laid out as:
//
//	+--------------------+-----------------------+------------------+
//	| header (6 bytes)   | payload length (2 BE) | JSON payload     |
//	+--------------------+-----------------------+------------------+
//
// The header is a fixed synthetic tag (11 22 33 44 88 92); it carries no addressing and is not
// checked on decode. The declared length must equal the number of payload bytes exactly, a frame
// is either decoded completely or rejected with one of the sentinel errors.
//
// Decode functions work on a complete frame held in memory. Reader reassembles frames from a
// TCP stream, keeping partial data across read deadlines.
package frame
