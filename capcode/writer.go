// Package capcode - streaming encoder.
//
// The encoder may rewrite markers inside an open capitalized run, so Writer
// keeps one encoder across writes and only emits the output no later input
// can change: everything before an open run, or, once a run spans three
// words, everything before its last complete word. Each input rune is
// encoded once; memory is bounded by the open part of the current run.
package capcode

import (
	"io"
	"unicode/utf8"
)

// Writer encodes everything written to it into an underlying io.Writer.
// Output is identical to Encode of the concatenated input. Close must be
// called to flush a trailing run. A Writer is not safe for concurrent use.
type Writer struct {
	w   io.Writer
	c   *Codec
	enc encoder

	partial []byte // incomplete UTF-8 sequence at the end of the last write
	offset  int    // input bytes consumed
	out     []byte // scratch for emitted text

	err    error
	closed bool
}

// NewWriter returns a Writer that encodes into w.
func (c *Codec) NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, c: c, enc: encoder{a: c.alphabet}}
}

// Write encodes p and writes the part of the output that is final.
// The returned count is len(p) unless an error occurred; errors are sticky.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if w.err != nil {
		return 0, w.err
	}

	data := p
	if len(w.partial) > 0 {
		w.partial = append(w.partial, p...)
		data = w.partial
	}
	i := 0
	for i < len(data) && utf8.FullRune(data[i:]) {
		r, size := utf8.DecodeRune(data[i:])
		if err := w.feed(r, size); err != nil {
			return 0, err
		}
		i += size
	}
	w.partial = append(w.partial[:0], data[i:]...)

	if err := w.Flush(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString is Write for strings.
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush writes the encoded output that no later input can change.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.emit(w.enc.stable())
}

// Buffered returns the number of encoded runes and incomplete input bytes
// held back.
func (w *Writer) Buffered() int {
	return len(w.enc.buf) + len(w.partial)
}

// Close encodes the remaining input. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	// A truncated sequence at the end decodes byte by byte to U+FFFD, as
	// it would in a string.
	for len(w.partial) > 0 {
		r, size := utf8.DecodeRune(w.partial)
		if err := w.feed(r, size); err != nil {
			return err
		}
		w.partial = w.partial[size:]
	}
	w.enc.finish()
	return w.emit(len(w.enc.buf))
}

func (w *Writer) feed(r rune, size int) error {
	if w.c.alphabet.Reserved(r) {
		w.err = w.c.reject(r, w.offset)
		return w.err
	}
	w.enc.write(r)
	w.offset += size
	return nil
}

func (w *Writer) emit(n int) error {
	if n == 0 {
		return nil
	}
	w.out = w.out[:0]
	for _, r := range w.enc.buf[:n] {
		w.out = utf8.AppendRune(w.out, r)
	}
	w.enc.drain(n)
	if _, err := w.w.Write(w.out); err != nil {
		w.err = err
		return err
	}
	return nil
}
