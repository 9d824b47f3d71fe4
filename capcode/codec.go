package capcode

import (
	"io"

	"go.uber.org/zap"
)

// Options configures a Codec.
type Options struct {
	// Alphabet is the marker set (default: DefaultAlphabet)
	Alphabet Alphabet

	// Logger receives debug output (default: no-op)
	Logger *zap.Logger
}

// DefaultOptions returns the options used by the package-level functions.
func DefaultOptions() Options {
	return Options{
		Alphabet: DefaultAlphabet,
		Logger:   zap.NewNop(),
	}
}

// Codec encodes and decodes with a fixed alphabet.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	alphabet Alphabet
	logger   *zap.Logger
}

// New creates a Codec. It fails only when the alphabet is invalid.
func New(opts Options) (*Codec, error) {
	if opts.Alphabet.IsZero() {
		opts.Alphabet = DefaultAlphabet
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := opts.Alphabet.Validate(); err != nil {
		return nil, err
	}
	return &Codec{alphabet: opts.Alphabet, logger: opts.Logger}, nil
}

// Must is like New but panics on error.
func Must(opts Options) *Codec {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Alphabet returns the codec's marker set.
func (c *Codec) Alphabet() Alphabet {
	return c.alphabet
}

var std = Must(DefaultOptions())

// Default returns the codec behind the package-level functions.
func Default() *Codec {
	return std
}

// Encode encodes text with the default alphabet.
func Encode(text string) (string, error) {
	return std.Encode(text)
}

// EncodeRunes encodes a rune slice with the default alphabet.
func EncodeRunes(text []rune) ([]rune, error) {
	return std.EncodeRunes(text)
}

// Decode decodes text with the default alphabet.
func Decode(text string) string {
	return std.Decode(text)
}

// DecodeRunes decodes a rune slice with the default alphabet.
func DecodeRunes(text []rune) []rune {
	return std.DecodeRunes(text)
}

// DecodeChunk decodes one chunk of a stream with the default alphabet.
func DecodeChunk(st State, chunk string) (string, State) {
	return std.DecodeChunk(st, chunk)
}

// Check validates the marker structure of text encoded with the default
// alphabet.
func Check(text string) error {
	return std.Check(text)
}

// NewDecoder returns a streaming decoder for the default alphabet.
func NewDecoder() *Decoder {
	return std.NewDecoder()
}

// NewReader returns a reader that decodes r with the default alphabet.
func NewReader(r io.Reader) io.Reader {
	return std.NewReader(r)
}

// NewWriter returns a writer that encodes into w with the default alphabet.
func NewWriter(w io.Writer) *Writer {
	return std.NewWriter(w)
}
