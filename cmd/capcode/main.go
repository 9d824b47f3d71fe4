// capcode - reversible case folding for tokenizer input
//
// Usage:
//
//	capcode encode [from] [to]   Encode plain text (stdin/stdout when omitted)
//	capcode decode [from] [to]   Decode encoded text
//	capcode frame [from]         Encode and wrap text in CS1-T frames
//	capcode unframe [from]       Verify and decode CS1-T frames to plain text
//	capcode inspect [from]       Print a summary of each CS1-T frame
//	capcode check [from]         Validate the markers of encoded text
//	capcode version              Print version info
//
// With --all, encode and decode convert every file of a directory.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Neumenon/capcode/capcode"
	"github.com/Neumenon/capcode/internal/batch"
	"github.com/Neumenon/capcode/internal/config"
	"github.com/Neumenon/capcode/internal/logging"
	"github.com/Neumenon/capcode/stream"
)

const libVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "capcode",
		Short: "capcode - reversible case folding for tokenizer input",
		Long: `capcode rewrites text so that it contains no uppercase letters. Capitals
become lowercase letters preceded by markers, which keeps a tokenizer's
vocabulary case-insensitive while decoding restores the text exactly.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "capcode.yaml", "config file (.yaml, .yml or .toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.convertCmd(batch.ModeEncode),
		a.convertCmd(batch.ModeDecode),
		a.frameCmd(),
		a.unframeCmd(),
		a.inspectCmd(),
		a.checkCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger.Named("capcode")
	a.logger.Debug("config loaded", zap.String("path", a.cfgPath), zap.String("alphabet", cfg.Alphabet))
	return nil
}

// codec validates the effective configuration and builds a codec from it.
func (a *app) codec() (*capcode.Codec, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return capcode.New(capcode.Options{
		Alphabet: a.cfg.AlphabetValue(),
		Logger:   a.logger,
	})
}

// input opens the named file, or stdin for "" and "-".
func (a *app) input(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(a.stdin), nil
	}
	if err := checkFile(name); err != nil {
		return nil, err
	}
	return os.Open(name)
}

func checkFile(name string) error {
	info, err := os.Stat(name)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, use --all", name)
	}
	return nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "capcode %s (CS1 v%d)\n", libVersion, stream.Version)
			return nil
		},
	}
}
