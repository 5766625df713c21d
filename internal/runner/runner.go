package runner

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"contact-sheet/internal/config"
	"contact-sheet/internal/filesystem"
	"contact-sheet/internal/logging"
	"contact-sheet/internal/metrics"
	"contact-sheet/internal/sheet"
	"contact-sheet/internal/workers"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// SheetBuilder builds and saves one sheet. *sheet.Builder implements it.
type SheetBuilder interface {
	CreateThumbnailSheet(ctx context.Context, videoPath string) (*sheet.Result, error)
	Save(res *sheet.Result, path string) error
}

// Outcome is what happened to one video.
type Outcome string

const (
	OutcomeBuilt    Outcome = "success"
	OutcomeDegraded Outcome = "degraded"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeRaced    Outcome = "raced"
	OutcomeFailed   Outcome = "failed"
)

// Failure records a video that produced no sheet.
type Failure struct {
	Video string
	Err   error
}

// Summary counts the outcomes of a run.
type Summary struct {
	Built          int
	Degraded       int
	Skipped        int
	Raced          int
	Failed         int
	OrphansRemoved int
	Failures       []Failure
	Duration       time.Duration
}

// Total is the number of videos the run looked at.
func (s *Summary) Total() int {
	return s.Built + s.Degraded + s.Skipped + s.Raced + s.Failed
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d built, %d degraded, %d skipped, %d raced, %d failed, %d orphans removed in %v",
		s.Built, s.Degraded, s.Skipped, s.Raced, s.Failed, s.OrphansRemoved, s.Duration.Round(time.Millisecond))
}

// Gate holds back new builds, e.g. while memory is short.
type Gate interface {
	Wait(ctx context.Context) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets how many videos are built at once. Zero sizes the pool
// from the CPU count.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithProgress renders a progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) {
		r.progress = w
	}
}

// WithGate makes every build wait on g before it starts.
func WithGate(g Gate) Option {
	return func(r *Runner) {
		r.gate = g
	}
}

// Runner drives a batch of builds.
type Runner struct {
	builder  SheetBuilder
	cfg      config.SheetConfig
	workers  int
	progress io.Writer
	gate     Gate

	mu      sync.Mutex
	summary Summary
}

// New creates a Runner that writes sheets next to their videos as cfg
// describes.
func New(builder SheetBuilder, cfg config.SheetConfig, opts ...Option) *Runner {
	r := &Runner{builder: builder, cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes videos and returns the summary. The error is non-nil only
// when ctx is cancelled; the summary then covers the videos finished so far.
func (r *Runner) Run(ctx context.Context, videos []string) (*Summary, error) {
	start := time.Now()
	r.summary = Summary{}

	n := workers.ForVideos(r.workers)
	if n > len(videos) && len(videos) > 0 {
		n = len(videos)
	}
	logging.Info("Building sheets for %d videos with %d workers", len(videos), n)

	bar := r.newBar(len(videos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)

	for _, video := range videos {
		if gctx.Err() != nil {
			break
		}
		if r.gate != nil {
			if err := r.gate.Wait(gctx); err != nil {
				break
			}
		}
		g.Go(func() error {
			outcome, err := r.process(gctx, video)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			r.record(video, outcome, err)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	summary := r.summary
	summary.Duration = time.Since(start)

	if err == nil {
		err = ctx.Err()
	}
	return &summary, err
}

func (r *Runner) newBar(total int) *progressbar.ProgressBar {
	if r.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription("Building sheets"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// process runs one video through check, build, re-check and save.
func (r *Runner) process(ctx context.Context, video string) (Outcome, error) {
	target := r.cfg.SheetPath(video)

	exists, err := filesystem.Exists(target)
	if err != nil {
		return OutcomeFailed, &sheet.BuildError{Kind: sheet.KindIO, Video: video, Err: err}
	}
	if exists {
		logging.Debug("Skipping %s: sheet already exists", video)
		return OutcomeSkipped, nil
	}

	res, err := r.builder.CreateThumbnailSheet(ctx, video)
	if err != nil {
		return OutcomeFailed, err
	}

	// Another process may have finished this sheet while we were building.
	exists, err = filesystem.Exists(target)
	if err != nil {
		return OutcomeFailed, &sheet.BuildError{Kind: sheet.KindIO, Video: video, Err: err}
	}
	if exists {
		logging.Info("Discarding sheet for %s: written concurrently by another build", video)
		return OutcomeRaced, nil
	}

	if err := r.builder.Save(res, target); err != nil {
		return OutcomeFailed, err
	}

	if res.Degraded() {
		if res.Drawn == 0 {
			logging.Warn("Sheet for %s has no frames: all %d extractions failed", filepath.Base(video), res.Expected())
		} else {
			logging.Warn("Sheet for %s is missing %d of %d frames (cells %v)",
				filepath.Base(video), res.Expected()-res.Drawn, res.Expected(), res.Missing)
		}
		return OutcomeDegraded, nil
	}

	logging.Info("Created %s", target)
	return OutcomeBuilt, nil
}

func (r *Runner) record(video string, outcome Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch outcome {
	case OutcomeBuilt:
		r.summary.Built++
	case OutcomeDegraded:
		r.summary.Degraded++
	case OutcomeSkipped:
		r.summary.Skipped++
	case OutcomeRaced:
		r.summary.Raced++
	case OutcomeFailed:
		r.summary.Failed++
		r.summary.Failures = append(r.summary.Failures, Failure{Video: video, Err: err})
		logging.Error("Failed to build sheet for %s: %v", video, err)
	}

	metrics.SheetBuildsTotal.WithLabelValues(statusLabel(outcome, err)).Inc()
}

// statusLabel maps an outcome to the builds counter label.
func statusLabel(outcome Outcome, err error) string {
	if outcome != OutcomeFailed {
		return string(outcome)
	}
	if kind, ok := sheet.KindOf(err); ok {
		return "error_" + kind.String()
	}
	return "error_io"
}
