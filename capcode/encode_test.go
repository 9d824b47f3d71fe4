package capcode

import (
	"errors"
	"testing"
	"unicode/utf8"
)

func TestEncode_Literals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "hello", "hello"},
		{"title", "Hello", "Chello"},
		{"upper_word", "HELLO", "Whello"},
		{"two_upper_words", "HELLO WORLD", "Whello Wworld"},
		{"single_letters", "A B C", "Wa Wb Cc"},
		{"three_words_eof", "THE QUICK BROWN", "Bthe quick brownE"},
		{"three_words_long_last_eof", "HELLO WORLD ABCDEFGHIJ", "Bhello world abcdefghijE"},
		{"two_letters_last_eof", "A B CD", "Ba b cdE"},
		{"mixed_second_word", "HELLO WOrld", "Whello CwCorld"},
		{"single_letter", "A", "Wa"},
		{"two_titles", "Hello World", "Chello Cworld"},
		{"camel", "iPhone", "iCphone"},
		{"upper_tail", "teST", "teWst"},
		{"upper_head", "HEllo", "ChCello"},
		{"upper_then_lower_word", "HELLO world", "Whello world"},
		{"upper_then_title", "HELLO World", "Whello Cworld"},
		{"two_upper_then_title", "HELLO WORLD Foo", "Whello Wworld Cfoo"},
		{"bracket_closed_by_word", "THE QUICK BROWN fox", "Bthe quick brownE fox"},
		{"bracket_to_eof", "THE QUICK BROWN FOX", "Bthe quick brown foxE"},
		{"bracket_four_words", "THE QUICK BROWN FOX jumps", "Bthe quick brown foxE jumps"},
		{"bracket_then_title", "THE QUICK BROWN Fox", "Bthe quick brownE Cfox"},
		{"three_words_trailing_space", "A B C ", "Ba b cE "},
		{"punctuation", "HELLO, WORLD! ok", "Whello, Wworld! ok"},
		{"apostrophe_word", "DON'T stop", "Wdon't stop"},
		{"apostrophe_title", "I'm", "Ci'm"},
		{"apostrophe_mixed", "NASA's", "CnCaCsCa's"},
		{"right_quote", "DON’T", "Wdon’t"},
		{"digits_in_word", "ABC123 def", "Wabc123 def"},
		{"digits_then_lower", "AB1c", "CaCb1c"},
		{"accented", "ÉCOLE", "Wécole"},
		{"accented_title", "Élan", "Célan"},
		{"combining", "E\u0301COLE", "We\u0301cole"},
		{"combining_title", "E\u0301cole", "Ce\u0301cole"},
		{"marker_letters", "Wow", "Cwow"},
		{"greek", "ΑΘΗΝΑ", "Wαθηνα"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.input)
			if err != nil {
				t.Fatalf("Encode(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Encode(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if back := Decode(got); back != tt.input {
				t.Errorf("Decode(%q) = %q, want %q", got, back, tt.input)
			}
		})
	}
}

func TestEncode_CaselessUppercase(t *testing.T) {
	// Letters without a reversible case pair are copied verbatim.
	for _, s := range []string{"İstanbul", "STRAẞE", "\u212Aelvin", "ϒ"} {
		enc, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", s, err)
		}
		if got := Decode(enc); got != s {
			t.Errorf("round trip %q -> %q -> %q", s, enc, got)
		}
	}
}

func TestEncode_OutputNeverShorter(t *testing.T) {
	for _, s := range sampleTexts {
		enc, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", s, err)
		}
		if utf8.RuneCountInString(enc) < utf8.RuneCountInString(s) {
			t.Errorf("Encode(%q) = %q is shorter than input", s, enc)
		}
	}
}

func TestEncodeRunes(t *testing.T) {
	in := []rune("HELLO WORLD")
	got, err := EncodeRunes(in)
	if err != nil {
		t.Fatalf("EncodeRunes error: %v", err)
	}
	if string(got) != "Whello Wworld" {
		t.Errorf("EncodeRunes = %q, want %q", string(got), "Whello Wworld")
	}
	if string(in) != "HELLO WORLD" {
		t.Errorf("input modified: %q", string(in))
	}
	if back := DecodeRunes(got); string(back) != "HELLO WORLD" {
		t.Errorf("DecodeRunes = %q", string(back))
	}
}

func TestEncode_ReservedRune(t *testing.T) {
	c := Must(Options{Alphabet: ControlAlphabet})

	_, err := c.Encode("abc\x11def")
	if !errors.Is(err, ErrReservedRune) {
		t.Fatalf("expected ErrReservedRune, got %v", err)
	}
	var ie *InputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InputError, got %T", err)
	}
	if ie.Rune != '\x11' || ie.Offset != 3 {
		t.Errorf("InputError = {%U %d}, want {U+0011 3}", ie.Rune, ie.Offset)
	}

	_, err = c.EncodeRunes([]rune("é\x0e"))
	if !errors.As(err, &ie) || ie.Offset != 1 {
		t.Errorf("EncodeRunes offset: got %v", err)
	}
}

func TestEncode_LetterMarkersNeverReserved(t *testing.T) {
	// B, E, W and C are folded like every other capital.
	in := "BECAUSE WE CAN, Bob"
	enc, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if got := Decode(enc); got != in {
		t.Errorf("round trip = %q, want %q", got, in)
	}
}

func TestEncode_ControlAlphabet(t *testing.T) {
	c := Must(Options{Alphabet: ControlAlphabet})
	got, err := c.Encode("HELLO WORLD")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if want := "\x11hello \x11world"; got != want {
		t.Errorf("Encode = %q, want %q", got, want)
	}
	if back := c.Decode(got); back != "HELLO WORLD" {
		t.Errorf("Decode = %q", back)
	}
}

var sampleTexts = []string{
	"",
	"hello",
	"Hello",
	"HELLO",
	"HELLO WORLD",
	"A B C",
	"The QUICK brown FOX jumps OVER THE LAZY dog.",
	"NASA's JPL and ESA's ESTEC",
	"ROCK 'N' ROLL",
	"iPhone XR, iPad PRO, MacBook",
	"CAPS LOCK IS ON AND STAYS ON",
	"HTTP2 over TLS1.3",
	"éÉ ÉÉ",
	"I'M NOT SHOUTING. I’M JUST LOUD!",
	"x Y z W C B E",
	"WHAT? WHO! WHY. ok",
	"mixedCASEWords AND MoreMixedCase",
}
