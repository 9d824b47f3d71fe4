package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Writer writes CS1-T (text) frames to an io.Writer.
type Writer struct {
	w       io.Writer
	withCRC bool
}

// NewWriter creates a new CS1-T frame writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// NewWriterWithCRC creates a writer that computes a CRC for every non-empty
// payload.
func NewWriterWithCRC(w io.Writer) *Writer {
	return &Writer{w: w, withCRC: true}
}

// WriteFrame writes a single frame in CS1-T format.
//
// Format:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [sum=sha256:X] [final=true]}\n
//	<payload bytes>\n
func (w *Writer) WriteFrame(f *Frame) error {
	var header strings.Builder
	header.WriteString("@frame{v=")
	if f.Version == 0 {
		header.WriteString(strconv.Itoa(int(Version)))
	} else {
		header.WriteString(strconv.Itoa(int(f.Version)))
	}
	header.WriteString(" sid=")
	header.WriteString(strconv.FormatUint(f.SID, 10))
	header.WriteString(" seq=")
	header.WriteString(strconv.FormatUint(f.Seq, 10))
	header.WriteString(" kind=")
	header.WriteString(f.Kind.String())
	header.WriteString(" len=")
	header.WriteString(strconv.Itoa(len(f.Payload)))

	crc := f.CRC
	if crc == nil && w.withCRC && len(f.Payload) > 0 {
		computed := ComputeCRC(f.Payload)
		crc = &computed
	}
	if crc != nil {
		fmt.Fprintf(&header, " crc=%08x", *crc)
	}
	if f.Sum != nil {
		header.WriteString(" sum=sha256:")
		header.WriteString(HashToHex(*f.Sum))
	}
	if f.IsFinal() {
		header.WriteString(" final=true")
	}
	header.WriteString("}\n")

	if _, err := io.WriteString(w.w, header.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.w.Write(f.Payload); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	if _, err := io.WriteString(w.w, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}

// WriteText writes a text frame carrying encoded text.
func (w *Writer) WriteText(sid, seq uint64, encoded []byte) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindText, Payload: encoded})
}

// WriteFinal writes the last text frame of a stream together with the digest
// of the stream's plain text.
func (w *Writer) WriteFinal(sid, seq uint64, encoded []byte, sum [32]byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindText,
		Payload: encoded,
		Sum:     &sum,
		Final:   true,
	})
}

// WriteAck writes an acknowledgement for seq.
func (w *Writer) WriteAck(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindAck})
}

// WriteErr writes an error frame with a plain message.
func (w *Writer) WriteErr(sid, seq uint64, msg string) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindErr, Payload: []byte(msg)})
}

// WritePing writes a keepalive.
func (w *Writer) WritePing(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindPing})
}

// WritePong answers a ping.
func (w *Writer) WritePong(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindPong})
}
