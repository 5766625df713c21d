package sheet

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contact-sheet/internal/config"
	"contact-sheet/internal/logging"
	"contact-sheet/internal/metrics"
	"contact-sheet/internal/probe"
)

// TempDirPrefix names every working directory a build creates. The stale
// sweep only touches directories with this prefix.
const TempDirPrefix = "contact-sheet-"

// StaleTempDirAge is how old a working directory must be before the sweep
// treats it as left behind by a crashed run.
const StaleTempDirAge = time.Hour

// State is a step of a sheet build.
type State int

const (
	StateInit State = iota
	StateProbed
	StateLayoutComputed
	StateExtracting
	StateComposited
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateProbed:
		return "probed"
	case StateLayoutComputed:
		return "layout_computed"
	case StateExtracting:
		return "extracting"
	case StateComposited:
		return "composited"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is a finished sheet held in memory.
type Result struct {
	VideoPath string
	Image     *image.NRGBA
	Geometry  Geometry
	Metadata  *probe.Metadata
	Samples   []Sample
	Drawn     int
	Missing   []int
}

// Expected is the number of cells on the sheet.
func (r *Result) Expected() int {
	return len(r.Samples)
}

// Degraded reports whether any cell is blank.
func (r *Result) Degraded() bool {
	return r.Drawn < r.Expected()
}

// Option configures a Builder.
type Option func(*Builder)

// WithTempRoot sets the directory working directories are created in.
// The default is os.TempDir().
func WithTempRoot(dir string) Option {
	return func(b *Builder) {
		b.tempRoot = dir
	}
}

// Builder turns one video into one sheet. A Builder may run several builds
// concurrently; each build owns its own working directory.
type Builder struct {
	cfg        config.SheetConfig
	prober     probe.Prober
	extractor  Extractor
	compositor *Compositor
	tempRoot   string
}

// NewBuilder creates a Builder. cfg should already be validated.
func NewBuilder(cfg config.SheetConfig, prober probe.Prober, extractor Extractor, opts ...Option) (*Builder, error) {
	compositor, err := NewCompositor(cfg)
	if err != nil {
		return nil, &BuildError{Kind: KindConfig, Err: err}
	}

	b := &Builder{
		cfg:        cfg,
		prober:     prober,
		extractor:  extractor,
		compositor: compositor,
		tempRoot:   os.TempDir(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type build struct {
	video string
	state State
}

func (bd *build) transition(to State) {
	logging.Debug("Sheet build %s: %s -> %s", filepath.Base(bd.video), bd.state, to)
	bd.state = to
}

func (bd *build) fail(kind Kind, err error) error {
	bd.transition(StateFailed)
	return &BuildError{Kind: kind, Video: bd.video, Err: err}
}

// CreateThumbnailSheet probes videoPath, extracts its frames and composites
// them into a sheet. Missing frames leave blank cells and are reported
// through Result.Missing rather than as an error. Every failure is a
// *BuildError.
func (b *Builder) CreateThumbnailSheet(ctx context.Context, videoPath string) (*Result, error) {
	start := time.Now()
	metrics.SheetBuildsInFlight.Inc()
	defer metrics.SheetBuildsInFlight.Dec()
	defer func() {
		metrics.SheetBuildDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	}()

	bd := &build{video: videoPath, state: StateInit}

	phase := time.Now()
	meta, err := b.prober.Probe(ctx, videoPath)
	if err != nil {
		return nil, bd.fail(KindProbe, err)
	}
	metrics.SheetBuildDuration.WithLabelValues("probe").Observe(time.Since(phase).Seconds())
	bd.transition(StateProbed)

	geo, err := ComputeLayout(meta.Width, meta.Height, b.cfg)
	if err != nil {
		return nil, bd.fail(KindConfig, err)
	}
	bd.transition(StateLayoutComputed)

	samples := SampleTimestamps(meta.Duration, geo.Total(), b.cfg.StartSkip)

	res, err := b.extractAndCompose(ctx, bd, geo, meta, samples)
	if err != nil {
		return nil, err
	}

	bd.transition(StateDone)
	return res, nil
}

// extractAndCompose owns the working directory: it exists only for the
// duration of this call.
func (b *Builder) extractAndCompose(ctx context.Context, bd *build, geo Geometry, meta *probe.Metadata, samples []Sample) (*Result, error) {
	if n := SweepStaleTempDirs(b.tempRoot, StaleTempDirAge); n > 0 {
		logging.Info("Removed %d stale working directories from %s", n, b.tempRoot)
	}

	dir, err := os.MkdirTemp(b.tempRoot, TempDirPrefix+"*")
	if err != nil {
		return nil, bd.fail(KindIO, fmt.Errorf("failed to create working directory: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logging.Warn("Failed to remove working directory %s: %v", dir, err)
		}
	}()
	bd.transition(StateExtracting)

	phase := time.Now()
	frames, err := b.extractor.Extract(ctx, meta.Path, samples, geo.ThumbWidth, geo.ThumbHeight, dir)
	if err != nil {
		return nil, bd.fail(KindExtraction, err)
	}
	metrics.SheetBuildDuration.WithLabelValues("extract").Observe(time.Since(phase).Seconds())

	phase = time.Now()
	img, missing, err := b.compositor.Compose(geo, meta, samples, frames)
	if err != nil {
		return nil, bd.fail(KindConfig, err)
	}
	metrics.SheetBuildDuration.WithLabelValues("compose").Observe(time.Since(phase).Seconds())
	bd.transition(StateComposited)

	drawn := len(samples) - len(missing)
	metrics.SheetFramesTotal.WithLabelValues("drawn").Add(float64(drawn))
	metrics.SheetFramesTotal.WithLabelValues("missing").Add(float64(len(samples) - drawn))

	return &Result{
		VideoPath: bd.video,
		Image:     img,
		Geometry:  geo,
		Metadata:  meta,
		Samples:   samples,
		Drawn:     drawn,
		Missing:   missing,
	}, nil
}

// SweepStaleTempDirs removes working directories under root older than
// maxAge. Errors are ignored; another instance may still be using them.
func SweepStaleTempDirs(root string, maxAge time.Duration) int {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), TempDirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			logging.Debug("Could not remove stale working directory %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.TempDirsSwept.Add(float64(removed))
	}
	return removed
}
