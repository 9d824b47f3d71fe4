package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Neumenon/capcode/stream"
)

func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

func (a *app) frameCmd() *cobra.Command {
	var (
		sid   uint64
		chunk int
	)
	cmd := &cobra.Command{
		Use:   "frame [from]",
		Short: "Encode plain text and wrap it in CS1-T frames",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("chunk") {
				a.cfg.Frame.ChunkSize = chunk
			}
			codec, err := a.codec()
			if err != nil {
				return err
			}
			in, err := a.input(argOr(args, 0, "-"))
			if err != nil {
				return err
			}
			defer in.Close()

			out := bufio.NewWriter(a.stdout)
			fw := stream.NewWriter(out)
			if a.cfg.Frame.CRC {
				fw = stream.NewWriterWithCRC(out)
			}
			s := stream.NewSender(fw, sid,
				stream.WithCodec(codec),
				stream.WithChunkSize(a.cfg.Frame.ChunkSize))
			if _, err := io.Copy(s, in); err != nil {
				return err
			}
			if err := s.Close(); err != nil {
				return err
			}
			a.logger.Debug("framed", zap.Uint64("sid", sid), zap.Uint64("frames", s.Seq()))
			return out.Flush()
		},
	}
	cmd.Flags().Uint64Var(&sid, "sid", 1, "stream id")
	cmd.Flags().IntVar(&chunk, "chunk", 0, "encoded bytes per frame (default from config)")
	return cmd
}

func (a *app) unframeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unframe [from]",
		Short: "Verify and decode CS1-T frames to plain text",
		Long: `Read CS1-T frames, verify sequence numbers, CRCs and final digests, and
write the decoded text of every text frame in arrival order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := a.codec()
			if err != nil {
				return err
			}
			in, err := a.input(argOr(args, 0, "-"))
			if err != nil {
				return err
			}
			defer in.Close()

			out := bufio.NewWriter(a.stdout)
			defer out.Flush()

			h := stream.NewFrameHandler(stream.WithCursorCodec(codec), stream.WithLogger(a.logger))
			h.OnText = func(sid, seq uint64, text string, _ *stream.SIDState) error {
				_, err := out.WriteString(text)
				return err
			}
			h.OnErr = func(sid, seq uint64, msg string, _ *stream.SIDState) error {
				a.logger.Warn("peer error", zap.Uint64("sid", sid), zap.Uint64("seq", seq), zap.String("msg", msg))
				return nil
			}

			r := stream.NewReader(in, stream.WithMaxPayload(a.cfg.Frame.MaxPayload))
			for {
				f, err := r.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				if err := h.Handle(f); err != nil {
					return err
				}
			}

			for _, sid := range h.Cursor.AllSIDs() {
				if st := h.Cursor.GetReadOnly(sid); st.LastSeq > 0 && !st.Final {
					return fmt.Errorf("sid %d: stream ended after seq %d without a final frame", sid, st.LastSeq)
				}
			}
			return out.Flush()
		},
	}
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [from]",
		Short: "Print a summary of each CS1-T frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := a.codec()
			if err != nil {
				return err
			}
			in, err := a.input(argOr(args, 0, "-"))
			if err != nil {
				return err
			}
			defer in.Close()

			cursor := stream.NewCursor(stream.WithCursorCodec(codec), stream.WithLogger(a.logger))
			r := stream.NewReader(in, stream.WithMaxPayload(a.cfg.Frame.MaxPayload), stream.WithoutCRCVerification())
			n := 0
			for {
				f, err := r.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					fmt.Fprintf(a.stderr, "frame %d: error: %v\n", n+1, err)
					return err
				}
				n++
				a.printFrame(n, f, cursor)
			}
			fmt.Fprintf(a.stderr, "\n--- %d frames ---\n", n)
			return nil
		},
	}
}

func (a *app) printFrame(n int, f *stream.Frame, cursor *stream.Cursor) {
	w := a.stdout
	fmt.Fprintf(w, "--- Frame %d ---\n", n)
	fmt.Fprintf(w, "  sid=%d seq=%d kind=%s len=%d\n", f.SID, f.Seq, f.Kind, len(f.Payload))

	if f.CRC != nil {
		status := "ok"
		if !stream.VerifyCRC(f.Payload, *f.CRC) {
			status = "MISMATCH"
		}
		fmt.Fprintf(w, "  crc=%08x (%s)\n", *f.CRC, status)
	}
	if f.Sum != nil {
		fmt.Fprintf(w, "  sum=sha256:%s\n", stream.HashToHex(*f.Sum))
	}
	if f.IsFinal() {
		fmt.Fprintf(w, "  final=true\n")
	}

	if len(f.Payload) == 0 {
		return
	}
	fmt.Fprintf(w, "  payload: %s\n", preview(string(f.Payload)))
	if f.Kind == stream.KindText {
		text, err := cursor.Decode(f)
		if text != "" {
			fmt.Fprintf(w, "  text: %s\n", preview(text))
		}
		if err != nil {
			fmt.Fprintf(w, "  error: %v\n", err)
		}
	}
}

func preview(s string) string {
	const limit = 200
	if len(s) <= limit {
		return fmt.Sprintf("%q", s)
	}
	cut := limit
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return fmt.Sprintf("%q...", s[:cut])
}

func (a *app) checkCmd() *cobra.Command {
	var alphabet string
	cmd := &cobra.Command{
		Use:   "check [from]",
		Short: "Validate the markers of encoded text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("alphabet") {
				a.cfg.Alphabet = alphabet
			}
			codec, err := a.codec()
			if err != nil {
				return err
			}
			name := argOr(args, 0, "-")
			in, err := a.input(name)
			if err != nil {
				return err
			}
			defer in.Close()

			data, err := io.ReadAll(in)
			if err != nil {
				return err
			}
			if err := codec.Check(string(data)); err != nil {
				fmt.Fprintf(a.stderr, "%s: %v\n", name, err)
				return err
			}
			fmt.Fprintln(a.stdout, "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&alphabet, "alphabet", "", "marker alphabet: letters or control")
	return cmd
}
