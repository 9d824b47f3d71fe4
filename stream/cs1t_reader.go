package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reader reads CS1-T (text) frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
	offset     int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 64 MiB).
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithoutCRCVerification disables CRC checks.
func WithoutCRCVerification() ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = false
	}
}

// NewReader creates a new CS1-T frame reader. CRCs are verified by default.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next reads and returns the next frame.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() (*Frame, error) {
	start := r.offset
	headerLine, err := r.r.ReadString('\n')
	r.offset += len(headerLine)
	if err != nil {
		if errors.Is(err, io.EOF) && headerLine == "" {
			return nil, io.EOF
		}
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Reason: "truncated header", Offset: start}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	frame, payloadLen, err := parseHeader(headerLine, start)
	if err != nil {
		return nil, err
	}
	if payloadLen > r.maxPayload {
		return nil, &ParseError{Reason: fmt.Sprintf("payload too large: %d > %d", payloadLen, r.maxPayload), Offset: start}
	}

	if payloadLen > 0 {
		frame.Payload = make([]byte, payloadLen)
		n, err := io.ReadFull(r.r, frame.Payload)
		r.offset += n
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, &ParseError{Reason: "truncated payload", Offset: r.offset}
			}
			return nil, fmt.Errorf("read payload: %w", err)
		}
	}

	// Trailing newline is optional at EOF.
	if b, err := r.r.ReadByte(); err == nil {
		if b == '\n' {
			r.offset++
		} else {
			_ = r.r.UnreadByte()
		}
	}

	if r.verifyCRC && frame.CRC != nil {
		if computed := ComputeCRC(frame.Payload); computed != *frame.CRC {
			return nil, &CRCMismatchError{Expected: *frame.CRC, Got: computed}
		}
	}
	return frame, nil
}

// ReadAll reads all frames until EOF.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

// parseHeader parses the @frame{...} header line and returns the frame and
// its declared payload length.
func parseHeader(line string, offset int) (*Frame, int, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "@frame{") {
		return nil, 0, &ParseError{Reason: "expected @frame{", Offset: offset}
	}
	end := strings.LastIndexByte(line, '}')
	if end < 0 {
		return nil, 0, &ParseError{Reason: "missing closing }", Offset: offset + len(line)}
	}

	frame := &Frame{Version: Version}
	payloadLen := 0
	seen := map[string]bool{}

	for _, pair := range strings.FieldsFunc(line[len("@frame{"):end], isSeparator) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		seen[key] = true
		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil || uint8(v) != Version {
				return nil, 0, &ParseError{Reason: "unsupported version: " + val, Offset: offset}
			}
			frame.Version = uint8(v)
		case "sid":
			sid, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid sid", Offset: offset}
			}
			frame.SID = sid
		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid seq", Offset: offset}
			}
			frame.Seq = seq
		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid kind: " + val, Offset: offset}
			}
			frame.Kind = kind
		case "len":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, 0, &ParseError{Reason: "invalid len", Offset: offset}
			}
			payloadLen = int(l)
		case "crc":
			crc, ok := parseCRC(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid crc: " + val, Offset: offset}
			}
			frame.CRC = &crc
			frame.Flags |= FlagHasCRC
		case "sum":
			sum, ok := HexToHash(val)
			if !ok {
				return nil, 0, &ParseError{Reason: "invalid sum", Offset: offset}
			}
			frame.Sum = &sum
			frame.Flags |= FlagHasSum
		case "final":
			frame.Final = val == "true" || val == "1"
			if frame.Final {
				frame.Flags |= FlagFinal
			}
		}
	}

	for _, key := range []string{"sid", "seq", "kind", "len"} {
		if !seen[key] {
			return nil, 0, &ParseError{Reason: "missing " + key, Offset: offset}
		}
	}
	return frame, payloadLen, nil
}

func isSeparator(c rune) bool {
	return c == ' ' || c == ',' || c == '\t'
}

// parseCRC parses "crc32:XXXXXXXX" or "XXXXXXXX".
func parseCRC(val string) (uint32, bool) {
	val = strings.TrimPrefix(val, "crc32:")
	if len(val) != 8 {
		return 0, false
	}
	v, err := strconv.ParseUint(val, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
