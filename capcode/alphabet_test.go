package capcode

import (
	"errors"
	"testing"
)

func TestAlphabet_BuiltinsValid(t *testing.T) {
	for _, a := range []Alphabet{LetterAlphabet, ControlAlphabet} {
		if err := a.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v", a, err)
		}
	}
}

func TestNewAlphabet(t *testing.T) {
	tests := []struct {
		name    string
		runes   [4]rune
		wantErr bool
	}{
		{"private_use", [4]rune{0xE000, 0xE001, 0xE002, 0xE003}, false},
		{"uppercase", [4]rune{'S', 'F', 'U', 'K'}, false},
		{"duplicate", [4]rune{'B', 'B', 'W', 'C'}, true},
		{"lowercase", [4]rune{'b', 'e', 'w', 'c'}, true},
		{"digit", [4]rune{'1', 'E', 'W', 'C'}, true},
		{"apostrophe", [4]rune{'\'', 'E', 'W', 'C'}, true},
		{"combining", [4]rune{'\u0301', 'E', 'W', 'C'}, true},
		{"space", [4]rune{' ', 'E', 'W', 'C'}, true},
		{"surrogate", [4]rune{0xD800, 'E', 'W', 'C'}, true},
		{"caseless_upper", [4]rune{'ϒ', 'E', 'W', 'C'}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAlphabet(tt.runes[0], tt.runes[1], tt.runes[2], tt.runes[3])
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAlphabet error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAlphabet) {
				t.Errorf("error %v does not wrap ErrInvalidAlphabet", err)
			}
		})
	}
}

func TestAlphabet_Reserved(t *testing.T) {
	if LetterAlphabet.Reserved('C') {
		t.Error("letter markers fold away and are never reserved")
	}
	if !ControlAlphabet.Reserved('\x11') {
		t.Error("control markers are reserved")
	}
	if ControlAlphabet.Reserved('a') {
		t.Error("'a' is not a marker")
	}
}

func TestAlphabet_Name(t *testing.T) {
	a := LetterAlphabet
	for r, want := range map[rune]string{'B': "BEGIN", 'E': "END", 'W': "WORD", 'C': "CHARACTER", 'x': ""} {
		if got := a.Name(r); got != want {
			t.Errorf("Name(%q) = %q, want %q", r, got, want)
		}
	}
}

func TestAlphabetByName(t *testing.T) {
	if a, ok := AlphabetByName("control"); !ok || a != ControlAlphabet {
		t.Error("control alphabet not found")
	}
	if a, ok := AlphabetByName(""); !ok || a != LetterAlphabet {
		t.Error("empty name should give the letter alphabet")
	}
	if _, ok := AlphabetByName("emoji"); ok {
		t.Error("unknown name should fail")
	}
}

func TestAlphabet_Translate(t *testing.T) {
	custom, err := NewAlphabet(0xE000, 0xE001, 0xE002, 0xE003)
	if err != nil {
		t.Fatal(err)
	}
	enc, _ := Encode("THE QUICK BROWN fox, Hello")
	moved := LetterAlphabet.Translate(enc, custom)
	c := Must(Options{Alphabet: custom})
	if got := c.Decode(moved); got != "THE QUICK BROWN fox, Hello" {
		t.Errorf("Decode(translated) = %q", got)
	}
	if back := custom.Translate(moved, LetterAlphabet); back != enc {
		t.Errorf("Translate back = %q, want %q", back, enc)
	}
}

func TestNew_InvalidAlphabet(t *testing.T) {
	_, err := New(Options{Alphabet: Alphabet{Begin: 'x', End: 'y', Word: 'z', Character: 'q'}})
	if !errors.Is(err, ErrInvalidAlphabet) {
		t.Errorf("New error = %v, want ErrInvalidAlphabet", err)
	}
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("New(zero) error: %v", err)
	}
	if c.Alphabet() != DefaultAlphabet {
		t.Errorf("zero options alphabet = %+v", c.Alphabet())
	}
}
