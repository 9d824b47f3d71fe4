package capcode

import (
	"slices"
	"sync"
	"unicode"

	"go.uber.org/zap"
)

// runeBufPool provides reusable encode buffers for Encode.
var runeBufPool = sync.Pool{
	New: func() any {
		buf := make([]rune, 0, 256)
		return &buf
	},
}

// maxPooledRunes bounds the buffers returned to runeBufPool.
const maxPooledRunes = 64 << 10

// Encode lowercases text and inserts markers that restore its casing.
// It fails only when text contains a reserved marker of the codec's alphabet.
// Invalid UTF-8 bytes are replaced by U+FFFD.
func (c *Codec) Encode(text string) (string, error) {
	for i, r := range text {
		if c.alphabet.Reserved(r) {
			return "", c.reject(r, i)
		}
	}
	bp := runeBufPool.Get().(*[]rune)
	e := encoder{a: c.alphabet, buf: (*bp)[:0]}
	for _, r := range text {
		e.write(r)
	}
	e.finish()
	out := string(e.buf)
	if cap(e.buf) <= maxPooledRunes {
		*bp = e.buf[:0]
		runeBufPool.Put(bp)
	}
	return out, nil
}

// EncodeRunes is Encode over a rune slice. The input is not modified.
func (c *Codec) EncodeRunes(text []rune) ([]rune, error) {
	for i, r := range text {
		if c.alphabet.Reserved(r) {
			return nil, c.reject(r, i)
		}
	}
	e := encoder{a: c.alphabet, buf: make([]rune, 0, len(text)+len(text)/4+8)}
	for _, r := range text {
		e.write(r)
	}
	e.finish()
	return e.buf, nil
}

func (c *Codec) reject(r rune, offset int) error {
	c.logger.Debug("rejecting input with reserved marker",
		zap.String("token", c.alphabet.Name(r)),
		zap.Int("offset", offset))
	return &InputError{Rune: r, Offset: offset}
}

// encoder holds the state of a single encode call.
//
// A run starts at an uppercase letter. BEGIN is written at capStart as a
// placeholder and the run is settled when a letter that is not uppercase
// arrives or the input ends: the placeholder becomes WORD or CHARACTER, or
// stays BEGIN and END is inserted, whichever needs fewer markers.
type encoder struct {
	a   Alphabet
	buf []rune

	capStart    int // placeholder position
	capEnd      int // end of the last uppercase letter (and its marks)
	secondStart int // start of the second word of the run
	lastWordEnd int // capEnd of the previous word
	nWords      int // words after the first one

	inRun  bool
	inWord bool
	single bool // the run is one letter so far
}

func (e *encoder) write(r rune) {
	if !e.inRun {
		if IsUpper(r) {
			e.capStart = len(e.buf)
			e.buf = append(e.buf, e.a.Begin, unicode.ToLower(r))
			e.capEnd = len(e.buf)
			e.nWords = 0
			e.inRun = true
			e.inWord = true
			e.single = true
			return
		}
		e.buf = append(e.buf, r)
		return
	}

	if IsAlpha(r) {
		if IsUpper(r) {
			if !e.inWord {
				e.inWord = true
				if e.nWords == 0 {
					e.secondStart = len(e.buf)
				}
				e.lastWordEnd = e.capEnd
				e.nWords++
			}
			e.buf = append(e.buf, unicode.ToLower(r))
			e.capEnd = len(e.buf)
			e.single = false
			return
		}
		e.settle(false)
		e.buf = append(e.buf, r)
		return
	}

	e.buf = append(e.buf, r)
	switch {
	case IsModifier(r):
		e.capEnd = len(e.buf)
	case IsDigit(r), IsWordGlue(r):
	default:
		e.inWord = false
	}
}

// finish settles a run left open at the end of input.
func (e *encoder) finish() {
	if e.inRun {
		e.settle(true)
	}
}

// settle picks the markers for the open run. atEOF means the input ended
// rather than a non-uppercase letter arriving; a word still in progress is
// then complete.
func (e *encoder) settle(atEOF bool) {
	e.inRun = false

	if e.single && e.inWord && !atEOF {
		e.buf[e.capStart] = e.a.Character
		return
	}

	switch e.nWords {
	case 0:
		if atEOF || !e.inWord {
			e.buf[e.capStart] = e.a.Word
			return
		}
		// mixed case such as "TEst": every capital gets its own marker
		e.buf[e.capStart] = e.a.Character
		e.markLetters(e.capStart + 2)

	case 1:
		e.buf[e.capStart] = e.a.Word
		if atEOF || !e.inWord {
			e.insert(e.secondStart, e.a.Word)
			return
		}
		e.markLetters(e.secondStart)

	case 2:
		if !e.inWord || (atEOF && e.lettersFrom(e.lastWordEnd) > 1) {
			e.insert(e.capEnd, e.a.End)
			return
		}
		// Two words and part of a third, or a one-letter third word at the
		// end of input ("A B C" -> "Wa Wb Cc"): no bracket.
		e.buf[e.capStart] = e.a.Word
		e.insert(e.secondStart, e.a.Word)
		e.markLetters(e.lastWordEnd)

	default:
		if atEOF || !e.inWord {
			e.insert(e.capEnd, e.a.End)
			return
		}
		e.insert(e.lastWordEnd, e.a.End)
		e.markLetters(e.lastWordEnd)
	}
}

// insert puts tok at pos and shifts the run positions at or after it.
func (e *encoder) insert(pos int, tok rune) {
	e.buf = slices.Insert(e.buf, pos, tok)
	if e.capEnd >= pos {
		e.capEnd++
	}
	if e.lastWordEnd >= pos {
		e.lastWordEnd++
	}
}

// markLetters puts CHARACTER before every letter in [from, capEnd).
func (e *encoder) markLetters(from int) {
	for i := from; i < e.capEnd; i++ {
		if IsAlpha(e.buf[i]) {
			e.buf = slices.Insert(e.buf, i, e.a.Character)
			e.capEnd++
			i++
		}
	}
}

// lettersFrom counts the letters in [from, capEnd).
func (e *encoder) lettersFrom(from int) int {
	n := 0
	for _, r := range e.buf[from:e.capEnd] {
		if IsAlpha(r) {
			n++
		}
	}
	return n
}

// stable returns how many leading runes of buf no later input can change.
// Outside a run that is all of it. Inside a run the placeholder may still be
// rewritten, unless the run already has three or more words: then it stays
// BEGIN and later markers only go at or after lastWordEnd.
func (e *encoder) stable() int {
	switch {
	case !e.inRun:
		return len(e.buf)
	case e.nWords >= 3:
		return e.lastWordEnd
	default:
		return e.capStart
	}
}

// drain drops the first n runes of buf and shifts the run positions.
func (e *encoder) drain(n int) {
	if n == 0 {
		return
	}
	e.buf = e.buf[:copy(e.buf, e.buf[n:])]
	e.capStart -= n
	e.capEnd -= n
	e.secondStart -= n
	e.lastWordEnd -= n
}
