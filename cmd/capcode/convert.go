package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Neumenon/capcode/internal/batch"
)

type convertFlags struct {
	all       bool
	alphabet  string
	normalize string
	zstd      bool
	check     bool
	jobs      int
}

func (a *app) convertCmd(mode batch.Mode) *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:  mode.String() + " [from] [to]",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, mode, f, args)
		},
	}
	if mode == batch.ModeEncode {
		cmd.Short = "Encode plain text"
		cmd.Long = `Encode plain text. Without arguments, reads stdin and writes stdout.
With only <from>, writes <from> plus the encoded suffix (.toknorm).`
	} else {
		cmd.Short = "Decode encoded text"
		cmd.Long = `Decode encoded text. Without arguments, reads stdin and writes stdout.
With only <from>, writes <from> plus the decoded suffix (.decoded).`
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.all, "all", false, "convert every file of the <from> directory")
	fl.StringVar(&f.alphabet, "alphabet", "", "marker alphabet: letters or control")
	fl.StringVar(&f.normalize, "normalize", "", "normalize plain text: none, nfc or nfd")
	fl.BoolVar(&f.zstd, "zstd", false, "compress outputs with zstd")
	fl.IntVar(&f.jobs, "jobs", 0, "parallel files with --all (0 = one per CPU)")
	if mode == batch.ModeDecode {
		fl.BoolVar(&f.check, "check", false, "validate markers before decoding")
	}
	return cmd
}

// applyFlags lets explicitly set flags override the configuration.
func (a *app) applyFlags(cmd *cobra.Command, f convertFlags) {
	fl := cmd.Flags()
	if fl.Changed("alphabet") {
		a.cfg.Alphabet = f.alphabet
	}
	if fl.Changed("normalize") {
		a.cfg.Normalize = f.normalize
	}
	if fl.Changed("zstd") {
		a.cfg.Compress = f.zstd
	}
	if fl.Changed("jobs") {
		a.cfg.Jobs = f.jobs
	}
}

func (a *app) batchOptions(check bool) (batch.Options, error) {
	codec, err := a.codec()
	if err != nil {
		return batch.Options{}, err
	}
	form, err := batch.ParseForm(a.cfg.Normalize)
	if err != nil {
		return batch.Options{}, err
	}
	return batch.Options{
		Codec:         codec,
		Normalize:     form,
		Compress:      a.cfg.Compress,
		Check:         check,
		Jobs:          a.cfg.Jobs,
		EncodedSuffix: a.cfg.Suffixes.Encoded,
		DecodedSuffix: a.cfg.Suffixes.Decoded,
		Logger:        a.logger,
	}, nil
}

func (a *app) runConvert(cmd *cobra.Command, mode batch.Mode, f convertFlags, args []string) error {
	a.applyFlags(cmd, f)
	opts, err := a.batchOptions(f.check)
	if err != nil {
		return err
	}

	from, to := "-", ""
	if len(args) > 0 {
		from = args[0]
	}
	if len(args) > 1 {
		to = args[1]
	}
	ctx := cmd.Context()

	if f.all {
		if from == "-" || to != "" {
			return errors.New("--all takes exactly one directory argument")
		}
		return a.runDir(ctx, mode, from, opts)
	}

	if to == "" {
		if from == "-" {
			to = "-"
		} else {
			to = from + a.suffix(mode)
		}
	}

	if from != "-" && to != "-" {
		if err := checkFile(from); err != nil {
			return err
		}
		convert := batch.EncodeFile
		if mode == batch.ModeDecode {
			convert = batch.DecodeFile
		}
		stats, err := convert(ctx, from, to, opts)
		if err != nil {
			return err
		}
		a.logger.Debug("converted", zap.String("from", from), zap.String("to", to),
			zap.Int64("in", stats.BytesIn), zap.Int64("out", stats.BytesOut))
		if mode == batch.ModeDecode {
			fmt.Fprintln(a.stderr, "Decoded:", from)
		} else {
			fmt.Fprintln(a.stderr, "Encoded:", from)
		}
		return nil
	}

	return a.convertStream(ctx, mode, from, to, opts)
}

// convertStream handles conversions where either side is stdin or stdout.
func (a *app) convertStream(ctx context.Context, mode batch.Mode, from, to string, opts batch.Options) (err error) {
	var src io.Reader = a.stdin
	if from != "-" {
		if err := checkFile(from); err != nil {
			return err
		}
		rc, err := batch.Open(from)
		if err != nil {
			return err
		}
		defer rc.Close()
		src = rc
	}

	var dst io.Writer = a.stdout
	if to != "-" {
		wc, err := batch.Create(to)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := wc.Close(); err == nil {
				err = cerr
			}
		}()
		dst = wc
	}

	if mode == batch.ModeDecode {
		_, err = batch.Decode(ctx, dst, src, opts)
	} else {
		_, err = batch.Encode(ctx, dst, src, opts)
	}
	return err
}

func (a *app) suffix(mode batch.Mode) string {
	s := a.cfg.Suffixes.Encoded
	if mode == batch.ModeDecode {
		s = a.cfg.Suffixes.Decoded
	}
	if a.cfg.Compress {
		s += batch.ZstdExt
	}
	return s
}

func (a *app) runDir(ctx context.Context, mode batch.Mode, dir string, opts batch.Options) error {
	report, err := batch.NewRunner(mode, opts).Run(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "%sd %d files (%d -> %d bytes) in %s\n",
		mode, report.Files, report.BytesIn, report.BytesOut, report.Duration.Round(time.Millisecond))
	for _, f := range report.Failures {
		fmt.Fprintf(a.stderr, "Error processing file '%s': %v\n", f.Path, f.Err)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d of %d files failed", len(report.Failures), len(report.Failures)+report.Files)
	}
	return nil
}
