package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mode selects the conversion direction of a Runner.
type Mode int

const (
	ModeEncode Mode = iota
	ModeDecode
)

func (m Mode) String() string {
	if m == ModeDecode {
		return "decode"
	}
	return "encode"
}

// Job is one planned file conversion.
type Job struct {
	From string
	To   string
}

// Failure records a file that could not be converted.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes a directory run.
type Report struct {
	RunID    string
	Mode     Mode
	Dir      string
	Files    int
	BytesIn  int64
	BytesOut int64
	Failures []Failure
	Duration time.Duration
}

// Err joins all failures, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Runner converts every regular file of a directory in parallel.
type Runner struct {
	mode Mode
	opts Options
}

// NewRunner creates a runner.
func NewRunner(mode Mode, opts Options) *Runner {
	return &Runner{mode: mode, opts: opts.withDefaults()}
}

// Plan lists the conversions Run would perform, in file name order.
// Encoding skips files that are themselves outputs of a previous run;
// decoding only picks up encoded files.
func (r *Runner) Plan(dir string) ([]Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var jobs []Job
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		base := strings.TrimSuffix(name, ZstdExt)
		encoded := strings.HasSuffix(base, r.opts.EncodedSuffix)
		decoded := strings.HasSuffix(base, r.opts.DecodedSuffix)

		var to string
		switch r.mode {
		case ModeEncode:
			if encoded || decoded {
				continue
			}
			to = base + r.opts.EncodedSuffix
		case ModeDecode:
			if !encoded {
				continue
			}
			to = base + r.opts.DecodedSuffix
		}
		if r.opts.Compress {
			to += ZstdExt
		}
		jobs = append(jobs, Job{From: filepath.Join(dir, name), To: filepath.Join(dir, to)})
	}
	return jobs, nil
}

// Run converts every planned file of dir. Per-file errors are collected in
// the report; the returned error is set only when the directory cannot be
// read or ctx ends the run early.
func (r *Runner) Run(ctx context.Context, dir string) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Mode: r.mode, Dir: dir}
	log := r.opts.Logger.With(zap.String("run", report.RunID), zap.Stringer("mode", r.mode))

	jobs, err := r.Plan(dir)
	if err != nil {
		return report, fmt.Errorf("plan %s: %w", dir, err)
	}
	log.Debug("planned", zap.String("dir", dir), zap.Int("files", len(jobs)))

	convert := EncodeFile
	if r.mode == ModeDecode {
		convert = DecodeFile
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)

	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			stats, err := convert(gctx, job.From, job.To, r.opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("conversion failed", zap.String("file", job.From), zap.Error(err))
				report.Failures = append(report.Failures, Failure{Path: job.From, Err: err})
				return nil
			}
			log.Debug("converted",
				zap.String("file", job.From),
				zap.Int64("in", stats.BytesIn),
				zap.Int64("out", stats.BytesOut))
			report.Files++
			report.BytesIn += stats.BytesIn
			report.BytesOut += stats.BytesOut
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(report.Failures, func(a, b Failure) int {
		return strings.Compare(a.Path, b.Path)
	})
	report.Duration = time.Since(start)

	log.Info("run complete",
		zap.Int("files", report.Files),
		zap.Int("failures", len(report.Failures)),
		zap.Duration("took", report.Duration))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}
