package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"contact-sheet/internal/logging"
	"contact-sheet/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// processWaitDelay bounds how long Wait lingers for output pipes after a
// timed-out ffmpeg has been killed.
const processWaitDelay = 5 * time.Second

// Extractor writes one still image per sample into dir and returns the
// paths it produced, keyed by sample index. Indices with no usable output
// are simply absent. An error means the whole extraction failed.
type Extractor interface {
	Extract(ctx context.Context, videoPath string, samples []Sample, width, height int, dir string) (map[int]string, error)
}

// FFmpegExtractor runs one ffmpeg process per sample, up to workers at a
// time. A process that fails or times out only loses its own cell; the
// build fails only if ffmpeg cannot be started or ctx is cancelled.
type FFmpegExtractor struct {
	binary  string
	timeout time.Duration
	workers int
}

// NewFFmpegExtractor creates an extractor. timeout bounds each process;
// zero waits indefinitely.
func NewFFmpegExtractor(binary string, timeout time.Duration, workers int) *FFmpegExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	if workers < 1 {
		workers = 1
	}
	return &FFmpegExtractor{binary: binary, timeout: timeout, workers: workers}
}

// FramePath is where the frame for sample index is written inside dir.
func FramePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%03d.jpg", index))
}

func formatSeek(ts time.Duration) string {
	return strconv.FormatFloat(ts.Seconds(), 'f', 3, 64)
}

// frameArgs seeks before -i so ffmpeg jumps to the nearest keyframe instead
// of decoding from the start.
func frameArgs(videoPath string, s Sample, width, height int, out string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-ss", formatSeek(s.Timestamp),
		"-i", videoPath,
		"-frames:v", "1",
		"-an", "-sn",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-q:v", "2",
		"-y",
		out,
	}
}

// Extract implements Extractor.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath string, samples []Sample, width, height int, dir string) (map[int]string, error) {
	frames := make(map[int]string, len(samples))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, s := range samples {
		g.Go(func() error {
			out := FramePath(dir, s.Index)
			if err := e.extractOne(gctx, videoPath, s, width, height, out); err != nil {
				if errors.Is(err, ErrDecoderUnavailable) || gctx.Err() != nil {
					return err
				}
				logging.Debug("Frame %d of %s at %s failed: %v", s.Index, filepath.Base(videoPath), formatSeek(s.Timestamp), err)
				return nil
			}

			if !frameWritten(out) {
				logging.Debug("Frame %d of %s at %s produced no output", s.Index, filepath.Base(videoPath), formatSeek(s.Timestamp))
				return nil
			}

			mu.Lock()
			frames[s.Index] = out
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return frames, err
	}
	if err := ctx.Err(); err != nil {
		return frames, err
	}
	return frames, nil
}

// extractOne runs a single ffmpeg process and always waits for it to exit.
func (e *FFmpegExtractor) extractOne(ctx context.Context, videoPath string, s Sample, width, height int, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := frameArgs(videoPath, s, width, height, out)
	cmd := exec.CommandContext(runCtx, e.binary, args...)
	cmd.WaitDelay = processWaitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if logging.IsDebugEnabled() {
		logging.Debug("Running %s %s", e.binary, strings.Join(args, " "))
	}

	if err := cmd.Start(); err != nil {
		metrics.DecoderInvocationsTotal.WithLabelValues("ffmpeg", "error").Inc()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrDecoderUnavailable, e.binary, err)
	}

	err := cmd.Wait()
	switch {
	case err == nil:
		metrics.DecoderInvocationsTotal.WithLabelValues("ffmpeg", "success").Inc()
		return nil
	case ctx.Err() != nil:
		metrics.DecoderInvocationsTotal.WithLabelValues("ffmpeg", "error").Inc()
		return ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		metrics.DecoderInvocationsTotal.WithLabelValues("ffmpeg", "timeout").Inc()
		return fmt.Errorf("ffmpeg timed out after %v", e.timeout)
	default:
		metrics.DecoderInvocationsTotal.WithLabelValues("ffmpeg", "error").Inc()
		return fmt.Errorf("ffmpeg failed: %v - %s", err, strings.TrimSpace(stderr.String()))
	}
}

func frameWritten(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
