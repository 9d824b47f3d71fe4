package capcode

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Alphabet is the set of four reserved marker runes.
type Alphabet struct {
	Begin     rune // opens a capitalized run
	End       rune // closes a run opened by Begin
	Word      rune // uppercase the following word
	Character rune // uppercase the next character
}

var (
	// LetterAlphabet uses B, E, W and C. Encoded text never contains an
	// uppercase letter, so these markers cannot collide with input.
	LetterAlphabet = Alphabet{Begin: 'B', End: 'E', Word: 'W', Character: 'C'}

	// ControlAlphabet uses C0 control codes that do not occur in ordinary
	// text. Input containing them is rejected by Encode.
	ControlAlphabet = Alphabet{Begin: '\x0e', End: '\x0f', Word: '\x11', Character: '\x12'}

	// DefaultAlphabet is used when Options.Alphabet is the zero value.
	DefaultAlphabet = LetterAlphabet
)

// AlphabetByName returns a built-in alphabet: "letters" or "control".
func AlphabetByName(name string) (Alphabet, bool) {
	switch name {
	case "letters", "letter", "":
		return LetterAlphabet, true
	case "control", "ctrl":
		return ControlAlphabet, true
	default:
		return Alphabet{}, false
	}
}

// NewAlphabet builds an alphabet and validates it.
func NewAlphabet(begin, end, word, character rune) (Alphabet, error) {
	a := Alphabet{Begin: begin, End: end, Word: word, Character: character}
	if err := a.Validate(); err != nil {
		return Alphabet{}, err
	}
	return a, nil
}

// IsZero reports whether a is the zero Alphabet.
func (a Alphabet) IsZero() bool {
	return a == Alphabet{}
}

// Runes returns the markers in BEGIN, END, WORD, CHARACTER order.
func (a Alphabet) Runes() [4]rune {
	return [4]rune{a.Begin, a.End, a.Word, a.Character}
}

// Validate checks that the markers are distinct and cannot be mistaken for
// text the encoder emits. A marker may be an uppercase letter (it is always
// folded away) or a non-letter that is not a digit, apostrophe or combining
// mark.
func (a Alphabet) Validate() error {
	rs := a.Runes()
	for i, r := range rs {
		name := tokenNames[i]
		switch {
		case !utf8.ValidRune(r):
			return fmt.Errorf("%w: %s marker %U is not a valid scalar value", ErrInvalidAlphabet, name, r)
		case IsAlpha(r) && !IsUpper(r):
			return fmt.Errorf("%w: %s marker %q is a letter that survives encoding", ErrInvalidAlphabet, name, r)
		case keepsWord(r):
			return fmt.Errorf("%w: %s marker %q is a word character", ErrInvalidAlphabet, name, r)
		case unicode.IsSpace(r):
			return fmt.Errorf("%w: %s marker %q is whitespace", ErrInvalidAlphabet, name, r)
		}
		for j := 0; j < i; j++ {
			if rs[j] == r {
				return fmt.Errorf("%w: %s and %s share %q", ErrInvalidAlphabet, tokenNames[j], name, r)
			}
		}
	}
	return nil
}

// IsMarker reports whether r is one of the four markers.
func (a Alphabet) IsMarker(r rune) bool {
	return r == a.Begin || r == a.End || r == a.Word || r == a.Character
}

// Reserved reports whether r must not appear in Encode input: it is a marker
// that the encoder would copy through unchanged.
func (a Alphabet) Reserved(r rune) bool {
	return a.IsMarker(r) && !IsUpper(r)
}

// Name returns the token name of marker r, or "" when r is not a marker.
func (a Alphabet) Name(r rune) string {
	for i, m := range a.Runes() {
		if m == r {
			return tokenNames[i]
		}
	}
	return ""
}

// Translate rewrites the markers of encoded text from alphabet a to alphabet
// to. Text encoded with a decodes with to afterwards.
func (a Alphabet) Translate(s string, to Alphabet) string {
	if a == to {
		return s
	}
	from := a.Runes()
	dst := to.Runes()
	out := make([]rune, 0, len(s))
	for _, r := range s {
		for i, m := range from {
			if r == m {
				r = dst[i]
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}

var tokenNames = [4]string{"BEGIN", "END", "WORD", "CHARACTER"}
