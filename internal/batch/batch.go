// Package batch converts files and directories between plain and encoded
// text.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Neumenon/capcode/capcode"
)

// ZstdExt marks zstd-compressed inputs and outputs.
const ZstdExt = ".zst"

// Form selects Unicode normalization of the plain side.
type Form string

const (
	NormNone Form = "none"
	NormNFC  Form = "nfc"
	NormNFD  Form = "nfd"
)

// ParseForm parses a normalization name. The empty string means none.
func ParseForm(s string) (Form, error) {
	switch Form(strings.ToLower(s)) {
	case "", NormNone:
		return NormNone, nil
	case NormNFC:
		return NormNFC, nil
	case NormNFD:
		return NormNFD, nil
	}
	return "", fmt.Errorf("unknown normalization form %q", s)
}

func (f Form) transformer() transform.Transformer {
	switch f {
	case NormNFC:
		return norm.NFC
	case NormNFD:
		return norm.NFD
	}
	return nil
}

// Options configures conversions.
type Options struct {
	Codec     *capcode.Codec
	Normalize Form // applied to plain text: before encoding, after decoding
	Compress  bool // Runner writes zstd outputs
	Check     bool // validate encoded input before decoding
	Jobs      int  // Runner parallelism, 0 = GOMAXPROCS

	EncodedSuffix string
	DecodedSuffix string

	Logger *zap.Logger
}

// DefaultOptions returns options with the default codec and suffixes.
func DefaultOptions() Options {
	return Options{
		Codec:         capcode.Default(),
		Normalize:     NormNone,
		EncodedSuffix: ".toknorm",
		DecodedSuffix: ".decoded",
		Logger:        zap.NewNop(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Codec == nil {
		o.Codec = d.Codec
	}
	if o.Normalize == "" {
		o.Normalize = d.Normalize
	}
	if o.EncodedSuffix == "" {
		o.EncodedSuffix = d.EncodedSuffix
	}
	if o.DecodedSuffix == "" {
		o.DecodedSuffix = d.DecodedSuffix
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
	return o
}

// Stats counts the bytes a conversion read and wrote, uncompressed.
type Stats struct {
	BytesIn  int64
	BytesOut int64
}

// Encode reads plain text from src and writes encoded text to dst.
func Encode(ctx context.Context, dst io.Writer, src io.Reader, opts Options) (Stats, error) {
	o := opts.withDefaults()
	in := &countingReader{r: ctxReader{ctx: ctx, r: src}}
	out := &countingWriter{w: dst}

	var r io.Reader = in
	if t := o.Normalize.transformer(); t != nil {
		r = transform.NewReader(r, t)
	}

	w := o.Codec.NewWriter(out)
	if _, err := io.Copy(w, r); err != nil {
		return Stats{BytesIn: in.n, BytesOut: out.n}, err
	}
	err := w.Close()
	return Stats{BytesIn: in.n, BytesOut: out.n}, err
}

// Decode reads encoded text from src and writes plain text to dst. With
// Options.Check the whole input is validated before anything is written.
func Decode(ctx context.Context, dst io.Writer, src io.Reader, opts Options) (Stats, error) {
	o := opts.withDefaults()
	in := &countingReader{r: ctxReader{ctx: ctx, r: src}}
	out := &countingWriter{w: dst}

	var r io.Reader = in
	if o.Check {
		data, err := io.ReadAll(in)
		if err != nil {
			return Stats{BytesIn: in.n}, err
		}
		if err := o.Codec.Check(string(data)); err != nil {
			return Stats{BytesIn: in.n}, err
		}
		r = bytes.NewReader(data)
	}
	r = o.Codec.NewReader(r)
	if t := o.Normalize.transformer(); t != nil {
		r = transform.NewReader(r, t)
	}

	_, err := io.Copy(out, r)
	return Stats{BytesIn: in.n, BytesOut: out.n}, err
}

// EncodeFile encodes from into to. Paths ending in .zst are read or
// written through zstd.
func EncodeFile(ctx context.Context, from, to string, opts Options) (Stats, error) {
	return convertFile(ctx, from, to, opts, Encode)
}

// DecodeFile decodes from into to. Paths ending in .zst are read or
// written through zstd.
func DecodeFile(ctx context.Context, from, to string, opts Options) (Stats, error) {
	return convertFile(ctx, from, to, opts, Decode)
}

type convertFunc func(context.Context, io.Writer, io.Reader, Options) (Stats, error)

func convertFile(ctx context.Context, from, to string, opts Options, convert convertFunc) (stats Stats, err error) {
	src, err := Open(from)
	if err != nil {
		return stats, err
	}
	defer src.Close()

	dst, err := Create(to)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := dst.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", to, cerr)
		}
		if err != nil {
			_ = os.Remove(to)
		}
	}()

	stats, err = convert(ctx, dst, src, opts)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", from, err)
	}
	return stats, nil
}

type zstdInput struct {
	io.ReadCloser
	f *os.File
}

func (z zstdInput) Close() error {
	z.ReadCloser.Close()
	return z.f.Close()
}

// Open opens a file for reading, decompressing .zst paths.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ZstdExt) {
		return f, nil
	}
	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd reader %s: %w", path, err)
	}
	return zstdInput{ReadCloser: zr.IOReadCloser(), f: f}, nil
}

type zstdOutput struct {
	*zstd.Encoder
	f *os.File
}

func (z zstdOutput) Close() error {
	if err := z.Encoder.Close(); err != nil {
		z.f.Close()
		return err
	}
	return z.f.Close()
}

// Create creates a file for writing, compressing .zst paths. Close
// flushes the compressor.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ZstdExt) {
		return f, nil
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer %s: %w", path, err)
	}
	return zstdOutput{Encoder: zw, f: f}, nil
}

// ============================================================
// io helpers
// ============================================================

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
