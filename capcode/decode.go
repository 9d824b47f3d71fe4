package capcode

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// State is the decoder state carried between chunks of one stream.
// The zero value is the state at the start of a stream.
type State struct {
	CharUpper bool // CHARACTER seen, next character is uppercase
	WordUpper bool // WORD seen, uppercase until the word ends
	InRun     bool // inside BEGIN ... END
}

// Idle reports whether no marker is waiting for text.
func (s State) Idle() bool {
	return !s.CharUpper && !s.WordUpper && !s.InRun
}

// step applies r to st. It returns the rune to emit and true, or false when r
// is a marker.
func (a Alphabet) step(st *State, r rune) (rune, bool) {
	switch r {
	case a.Character:
		st.CharUpper = true
		return 0, false
	case a.Word:
		st.WordUpper = true
		return 0, false
	case a.Begin:
		st.InRun = true
		return 0, false
	case a.End:
		st.InRun = false
		return 0, false
	}

	switch {
	case st.CharUpper:
		st.CharUpper = false
		return unicode.ToUpper(r), true
	case st.WordUpper:
		if IsAlpha(r) {
			return unicode.ToUpper(r), true
		}
		if !keepsWord(r) {
			st.WordUpper = false
		}
		return r, true
	case st.InRun && IsAlpha(r):
		return unicode.ToUpper(r), true
	}
	return r, true
}

// Decode restores the casing of text encoded with the codec's alphabet.
// Decode never fails; text without markers is returned unchanged.
func (c *Codec) Decode(text string) string {
	out, _ := c.DecodeChunk(State{}, text)
	return out
}

// DecodeRunes is Decode over a rune slice.
func (c *Codec) DecodeRunes(text []rune) []rune {
	var st State
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if o, ok := c.alphabet.step(&st, r); ok {
			out = append(out, o)
		}
	}
	return out
}

// DecodeChunk decodes one chunk of a stream starting from st and returns the
// output with the state to pass to the next chunk. Feeding a stream through
// DecodeChunk in any number of pieces gives the same text as one Decode call,
// as long as no piece splits a UTF-8 sequence.
func (c *Codec) DecodeChunk(st State, chunk string) (string, State) {
	var sb strings.Builder
	sb.Grow(len(chunk))
	for _, r := range chunk {
		if o, ok := c.alphabet.step(&st, r); ok {
			sb.WriteRune(o)
		}
	}
	return sb.String(), st
}

// ============================================================
// Decoder - transform.Transformer
// ============================================================

// Decoder is a resumable decoder. It implements transform.Transformer, so it
// can be used with transform.NewReader, transform.NewWriter and
// transform.String. A Decoder is one stream and is not safe for concurrent
// use.
type Decoder struct {
	alphabet Alphabet
	state    State
}

// NewDecoder returns a Decoder in the initial state.
func (c *Codec) NewDecoder() *Decoder {
	return &Decoder{alphabet: c.alphabet}
}

// NewDecoderAt returns a Decoder resuming from st.
func (c *Codec) NewDecoderAt(st State) *Decoder {
	return &Decoder{alphabet: c.alphabet, state: st}
}

// State returns the current state.
func (d *Decoder) State() State {
	return d.state
}

// Reset implements transform.Transformer.
func (d *Decoder) Reset() {
	d.state = State{}
}

// DecodeString decodes the next chunk of the stream.
func (d *Decoder) DecodeString(chunk string) string {
	var sb strings.Builder
	sb.Grow(len(chunk))
	for _, r := range chunk {
		if o, ok := d.alphabet.step(&d.state, r); ok {
			sb.WriteRune(o)
		}
	}
	return sb.String()
}

// Transform implements transform.Transformer. State only advances past runes
// that were fully consumed, so a short buffer never loses a marker.
func (d *Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			err = transform.ErrShortSrc
			break
		}
		r, size := utf8.DecodeRune(src[nSrc:])

		st := d.state
		o, ok := d.alphabet.step(&st, r)
		if ok {
			if nDst+utf8.RuneLen(o) > len(dst) {
				err = transform.ErrShortDst
				break
			}
			nDst += utf8.EncodeRune(dst[nDst:], o)
		}
		d.state = st
		nSrc += size
	}
	return nDst, nSrc, err
}

// NewReader returns a reader that decodes the encoded text read from r.
func (c *Codec) NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, c.NewDecoder())
}
