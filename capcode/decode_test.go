package capcode

import (
	"bytes"
	"io"
	"math/rand/v2"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/transform"
)

func TestDecode_Literals(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Chello", "Hello"},
		{"Whello", "HELLO"},
		{"Whello Wworld", "HELLO WORLD"},
		{"Wa Wb Cc", "A B C"},
		{"Bthe quick brownE fox", "THE QUICK BROWN fox"},
		{"Wdon't stop", "DON'T stop"},
		{"Wabc123 def", "ABC123 def"},
		{"Wécole", "ÉCOLE"},
		{"hello", "hello"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Decode(tt.input); got != tt.want {
			t.Errorf("Decode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDecode_Passthrough(t *testing.T) {
	for _, s := range []string{"hello world", "x y z", "1, 2, 3!", "café au lait", "i'm ok"} {
		if got := Decode(s); got != s {
			t.Errorf("Decode(%q) = %q", s, got)
		}
	}
}

func TestDecode_RunLeavesSymbolsAlone(t *testing.T) {
	// ⓐ has an uppercase mapping but is not a letter.
	got := Decode("Bab ⓐ cd efE")
	if want := "AB ⓐ CD EF"; got != want {
		t.Errorf("Decode = %q, want %q", got, want)
	}
}

func TestDecode_WordModeContinuation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Wab1cd ef", "AB1CD ef"},
		{"Wab'cd ef", "AB'CD ef"},
		{"Wab\u0301cd ef", "AB\u0301CD ef"},
		{"Wab-cd", "AB-cd"},
	}
	for _, tt := range tests {
		if got := Decode(tt.input); got != tt.want {
			t.Errorf("Decode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDecodeChunk_CarriesState(t *testing.T) {
	var st State
	var out strings.Builder
	for _, chunk := range []string{"W", "hel", "lo B", "a b", " cE", " C", "x"} {
		var s string
		s, st = DecodeChunk(st, chunk)
		out.WriteString(s)
	}
	if want := "HELLO A B C X"; out.String() != want {
		t.Errorf("chunked decode = %q, want %q", out.String(), want)
	}
	if !st.Idle() {
		t.Errorf("state not idle after stream: %+v", st)
	}
}

func TestDecodeChunk_PendingState(t *testing.T) {
	_, st := DecodeChunk(State{}, "abc C")
	if !st.CharUpper || st.WordUpper || st.InRun {
		t.Errorf("state = %+v, want CharUpper only", st)
	}
	_, st = DecodeChunk(State{}, "Bab")
	if !st.InRun {
		t.Errorf("state = %+v, want InRun", st)
	}
}

// ============================================================
// Properties
// ============================================================

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 2000; i++ {
		in := randomText(rng, 1+rng.IntN(48))
		enc, err := Encode(in)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", in, err)
		}
		if got := Decode(enc); got != in {
			t.Fatalf("round trip failed\n in: %q\nenc: %q\nout: %q", in, enc, got)
		}
		if err := Check(enc); err != nil {
			t.Fatalf("Check(Encode(%q)) = %v (enc %q)", in, err, enc)
		}
		if len([]rune(enc)) < len([]rune(in)) {
			t.Fatalf("Encode(%q) shrank to %q", in, enc)
		}
	}
}

func TestRoundTrip_ControlAlphabet(t *testing.T) {
	c := Must(Options{Alphabet: ControlAlphabet})
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 500; i++ {
		in := randomText(rng, 1+rng.IntN(32))
		enc, err := c.Encode(in)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", in, err)
		}
		if got := c.Decode(enc); got != in {
			t.Fatalf("round trip failed: %q -> %q -> %q", in, enc, got)
		}
		if translated := ControlAlphabet.Translate(enc, LetterAlphabet); Decode(translated) != in {
			t.Fatalf("translated decode failed for %q", in)
		}
	}
}

func TestStreaming_EverySplit(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 200; i++ {
		in := randomText(rng, 1+rng.IntN(24))
		enc, _ := Encode(in)
		want := Decode(enc)
		rs := []rune(enc)
		for cut := 0; cut <= len(rs); cut++ {
			a, st := DecodeChunk(State{}, string(rs[:cut]))
			b, _ := DecodeChunk(st, string(rs[cut:]))
			if diff := cmp.Diff(want, a+b); diff != "" {
				t.Fatalf("split at %d of %q (-want +got):\n%s", cut, enc, diff)
			}
		}
	}
}

func TestStreaming_RandomChunks(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 300; i++ {
		in := randomText(rng, 1+rng.IntN(64))
		enc, _ := Encode(in)
		rs := []rune(enc)

		d := NewDecoder()
		var out strings.Builder
		for len(rs) > 0 {
			n := 1 + rng.IntN(len(rs))
			out.WriteString(d.DecodeString(string(rs[:n])))
			rs = rs[n:]
		}
		if diff := cmp.Diff(in, out.String()); diff != "" {
			t.Fatalf("chunked decode of %q (-want +got):\n%s", enc, diff)
		}
	}
}

// ============================================================
// Decoder as transform.Transformer
// ============================================================

func TestDecoder_TransformString(t *testing.T) {
	for _, s := range sampleTexts {
		enc, _ := Encode(s)
		got, _, err := transform.String(NewDecoder(), enc)
		if err != nil {
			t.Fatalf("transform.String error: %v", err)
		}
		if got != s {
			t.Errorf("transform.String(%q) = %q, want %q", enc, got, s)
		}
	}
}

func TestDecoder_ShortDst(t *testing.T) {
	d := NewDecoder()
	src := []byte("Cé")
	dst := make([]byte, 1)

	nDst, nSrc, err := d.Transform(dst, src, true)
	if err != transform.ErrShortDst {
		t.Fatalf("err = %v, want ErrShortDst", err)
	}
	if nDst != 0 || nSrc != 1 {
		t.Errorf("nDst, nSrc = %d, %d, want 0, 1", nDst, nSrc)
	}
	if !d.State().CharUpper {
		t.Error("CHARACTER should have been consumed")
	}

	dst = make([]byte, 8)
	nDst, nSrc, err = d.Transform(dst, src[1:], true)
	if err != nil {
		t.Fatalf("second Transform error: %v", err)
	}
	if got := string(dst[:nDst]); got != "É" || nSrc != 2 {
		t.Errorf("got %q (nSrc %d), want \"É\" (2)", got, nSrc)
	}
}

func TestDecoder_ShortSrc(t *testing.T) {
	d := NewDecoder()
	src := []byte("Cé")[:2] // C plus half of é
	dst := make([]byte, 8)
	nDst, nSrc, err := d.Transform(dst, src, false)
	if err != transform.ErrShortSrc {
		t.Fatalf("err = %v, want ErrShortSrc", err)
	}
	if nDst != 0 || nSrc != 1 {
		t.Errorf("nDst, nSrc = %d, %d, want 0, 1", nDst, nSrc)
	}
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	d.DecodeString("Babc")
	if !d.State().InRun {
		t.Fatal("expected open run")
	}
	d.Reset()
	if !d.State().Idle() {
		t.Errorf("state after Reset = %+v", d.State())
	}
	resumed := Default().NewDecoderAt(State{WordUpper: true})
	if got := resumed.DecodeString("abc def"); got != "ABC def" {
		t.Errorf("resumed decode = %q", got)
	}
}

func TestNewReader_OneByte(t *testing.T) {
	in := "The QUICK brown FOX jumps OVER THE LAZY dog. Ça va? ÉTÉ"
	enc, _ := Encode(in)
	r := NewReader(iotest.OneByteReader(strings.NewReader(enc)))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if diff := cmp.Diff(in, string(got)); diff != "" {
		t.Errorf("reader output (-want +got):\n%s", diff)
	}
}

func TestNewReader_Large(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 2000; i++ {
		sb.WriteString(sampleTexts[i%len(sampleTexts)])
		sb.WriteByte('\n')
	}
	in := sb.String()
	enc, _ := Encode(in)
	var out bytes.Buffer
	if _, err := io.Copy(&out, NewReader(strings.NewReader(enc))); err != nil {
		t.Fatalf("Copy error: %v", err)
	}
	if out.String() != in {
		t.Error("large reader round trip mismatch")
	}
}

// randomText draws n runes from a pool of cased letters, digits, spacing,
// punctuation, apostrophes and combining marks.
func randomText(rng *rand.Rand, n int) string {
	pool := []rune("aAbBcCeEwWxXyYzZ éÉßñÑ 01 9 .,-!? '’ \u0301\u0308 ")
	rs := make([]rune, n)
	for i := range rs {
		if rng.IntN(4) == 0 {
			rs[i] = []rune("ABCEWXYZ ")[rng.IntN(9)]
			continue
		}
		rs[i] = pool[rng.IntN(len(pool))]
	}
	return string(rs)
}
