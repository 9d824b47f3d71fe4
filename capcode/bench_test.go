package capcode

import (
	"strings"
	"testing"
)

func benchText() string {
	var sb strings.Builder
	for sb.Len() < 64*1024 {
		for _, s := range sampleTexts {
			sb.WriteString(s)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func BenchmarkEncode(b *testing.B) {
	text := benchText()
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Encode(text); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	enc, _ := Encode(benchText())
	b.SetBytes(int64(len(enc)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Decode(enc)
	}
}

func BenchmarkWriter(b *testing.B) {
	text := []byte(benchText())
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := NewWriter(discard{})
		for j := 0; j < len(text); j += 512 {
			end := min(j+512, len(text))
			w.Write(text[j:end])
		}
		w.Close()
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func BenchmarkWriter_AllCaps(b *testing.B) {
	text := []byte(strings.Repeat("CAPS LOCK ", 400_000))
	b.SetBytes(int64(len(text)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := NewWriter(discard{})
		for j := 0; j < len(text); j += 32 << 10 {
			end := min(j+32<<10, len(text))
			w.Write(text[j:end])
		}
		w.Close()
	}
}
