package stream

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"
	"io"
	"unicode/utf8"

	"github.com/Neumenon/capcode/capcode"
)

// DefaultChunkSize is the default encoded payload size of a text frame.
const DefaultChunkSize = 4096

// ErrSenderClosed is returned by writes after Close.
var ErrSenderClosed = errors.New("cs1: sender closed")

// Sender encodes plain text for one SID and writes it as text frames.
// Frames are cut at rune boundaries once ChunkSize encoded bytes are
// pending; Close writes the remainder as the final frame carrying the
// SHA-256 digest of everything written. The plain text must be valid UTF-8
// for the digest to verify on the receiving side.
type Sender struct {
	fw    *Writer
	sid   uint64
	seq   uint64
	chunk int
	codec *capcode.Codec

	enc     *capcode.Writer
	encoded bytes.Buffer
	sum     hash.Hash
	closed  bool
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithChunkSize sets the encoded payload size per frame.
func WithChunkSize(n int) SenderOption {
	return func(s *Sender) {
		if n > 0 {
			s.chunk = n
		}
	}
}

// WithCodec sets the codec used to encode text.
func WithCodec(c *capcode.Codec) SenderOption {
	return func(s *Sender) {
		if c != nil {
			s.codec = c
		}
	}
}

// NewSender creates a sender writing frames for sid through fw.
func NewSender(fw *Writer, sid uint64, opts ...SenderOption) *Sender {
	s := &Sender{
		fw:    fw,
		sid:   sid,
		chunk: DefaultChunkSize,
		codec: capcode.Default(),
		sum:   sha256.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.enc = s.codec.NewWriter(&s.encoded)
	return s
}

// Write encodes p and writes every complete chunk as a text frame.
func (s *Sender) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrSenderClosed
	}
	if _, err := s.enc.Write(p); err != nil {
		return 0, err
	}
	s.sum.Write(p)
	for s.encoded.Len() >= s.chunk {
		if err := s.emit(cutRune(s.encoded.Bytes(), s.chunk)); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// WriteString is like Write but takes a string.
func (s *Sender) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Seq returns the sequence number of the last frame written.
func (s *Sender) Seq() uint64 {
	return s.seq
}

// Close settles the encoder, writes remaining full chunks, and ends the
// stream with a final frame. It does not close the underlying writer.
func (s *Sender) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.enc.Close(); err != nil {
		return err
	}
	for s.encoded.Len() > s.chunk {
		if err := s.emit(cutRune(s.encoded.Bytes(), s.chunk)); err != nil {
			return err
		}
	}
	var sum [32]byte
	copy(sum[:], s.sum.Sum(nil))
	s.seq++
	payload := bytes.Clone(s.encoded.Bytes())
	s.encoded.Reset()
	return s.fw.WriteFinal(s.sid, s.seq, payload, sum)
}

func (s *Sender) emit(n int) error {
	s.seq++
	if err := s.fw.WriteText(s.sid, s.seq, s.encoded.Next(n)); err != nil {
		return err
	}
	return nil
}

// cutRune returns the largest n' <= n that does not split a UTF-8 sequence.
// A single rune longer than n is returned whole.
func cutRune(b []byte, n int) int {
	if n >= len(b) {
		return len(b)
	}
	for i := n; i > 0; i-- {
		if utf8.RuneStart(b[i]) {
			return i
		}
	}
	_, size := utf8.DecodeRune(b)
	return size
}

var _ io.WriteCloser = (*Sender)(nil)
