// Package stream implements CS1 (capcode Stream v1) framing.
//
// CS1 is a transport envelope for capcode-encoded text, providing:
//   - Message boundaries and resync
//   - Multiplexing via stream IDs (sid)
//   - Ordering via sequence numbers (seq)
//   - Integrity via optional CRC-32 per frame
//   - End-to-end integrity via a SHA-256 digest of the plain text (sum)
//
// Frame headers are never encoded. Payloads of text frames are encoded text;
// a stream's payloads concatenated in seq order form one encoded document.
package stream

import (
	"fmt"
)

// Version is the CS1 protocol version.
const Version uint8 = 1

// FrameKind indicates the semantic category of a frame's payload.
type FrameKind uint8

const (
	KindText FrameKind = 0 // Chunk of encoded text
	KindAck  FrameKind = 1 // Acknowledgement
	KindErr  FrameKind = 2 // Error event, payload is a plain message
	KindPing FrameKind = 3 // Keepalive
	KindPong FrameKind = 4 // Ping response
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindAck:
		return "ack"
	case KindErr:
		return "err"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind name or its numeric value.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "text", "0":
		return KindText, true
	case "ack", "1":
		return KindAck, true
	case "err", "2":
		return KindErr, true
	case "ping", "3":
		return KindPing, true
	case "pong", "4":
		return KindPong, true
	}
	return 0, false
}

// Flags for CS1 frames.
type Flags uint8

const (
	FlagHasCRC Flags = 0x01 // CRC-32 is present
	FlagHasSum Flags = 0x02 // Plain-text digest is present
	FlagFinal  Flags = 0x04 // End-of-stream for this SID
)

// Frame represents a single CS1 frame.
type Frame struct {
	Version uint8
	SID     uint64
	Seq     uint64 // per-SID, starts at 1
	Kind    FrameKind
	Payload []byte

	CRC   *uint32   // CRC-32 of payload
	Sum   *[32]byte // SHA-256 of the whole stream's plain text, final frame only
	Flags Flags
	Final bool
}

// HasCRC reports whether a CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// HasSum reports whether a plain-text digest is present.
func (f *Frame) HasSum() bool {
	return f.Sum != nil
}

// IsFinal reports whether this is the final frame for its SID.
func (f *Frame) IsFinal() bool {
	return f.Final || f.Flags&FlagFinal != 0
}

// MaxPayloadSize is the default maximum payload size (64 MiB).
const MaxPayloadSize = 64 * 1024 * 1024

// ParseError reports a malformed frame header.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("cs1: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("cs1: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("cs1: CRC mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

// DigestMismatchError is returned when the decoded text of a stream does not
// hash to the digest carried by its final frame.
type DigestMismatchError struct {
	SID      uint64
	Expected [32]byte
	Got      [32]byte
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("cs1: sid %d: digest mismatch: expected %s, got %s",
		e.SID, HashToHex(e.Expected), HashToHex(e.Got))
}

// SequenceError is returned when a text frame arrives out of order.
type SequenceError struct {
	SID      uint64
	Expected uint64
	Got      uint64
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("cs1: sid %d: expected seq %d, got %d", e.SID, e.Expected, e.Got)
}
