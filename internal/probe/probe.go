// Package probe reads video metadata by running ffprobe.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"contact-sheet/internal/logging"
	"contact-sheet/internal/metrics"
)

// Metadata holds the probed properties of a video file.
type Metadata struct {
	Path      string
	Duration  time.Duration
	Width     int
	Height    int
	Codec     string
	Container string
	Size      int64
}

// Prober extracts Metadata from a video file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}

// FFprobe is a Prober backed by the ffprobe binary.
type FFprobe struct {
	binary  string
	timeout time.Duration
}

// New creates an FFprobe. A zero timeout waits for ffprobe indefinitely.
func New(binary string, timeout time.Duration) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary, timeout: timeout}
}

type ffprobeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

// Probe runs ffprobe against path.
func (p *FFprobe) Probe(ctx context.Context, path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("video not accessible: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("video path %s is a directory", path)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug("Probing %s", path)
	if err := cmd.Run(); err != nil {
		status := "error"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.DecoderInvocationsTotal.WithLabelValues("ffprobe", status).Inc()
		return nil, fmt.Errorf("ffprobe failed: %w - %s", err, strings.TrimSpace(stderr.String()))
	}
	metrics.DecoderInvocationsTotal.WithLabelValues("ffprobe", "success").Inc()

	meta, err := Parse(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to read ffprobe output for %s: %w", path, err)
	}
	meta.Path = path
	if meta.Size == 0 {
		meta.Size = info.Size()
	}
	return meta, nil
}

// Parse decodes ffprobe JSON output. The first video stream supplies the
// codec and dimensions; the stream duration wins over the container's.
func Parse(data []byte) (*Metadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid ffprobe JSON: %w", err)
	}

	var video *ffprobeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			video = &out.Streams[i]
			break
		}
	}
	if video == nil {
		return nil, errors.New("no video stream found")
	}

	seconds, ok := parseSeconds(video.Duration)
	if !ok {
		seconds, ok = parseSeconds(out.Format.Duration)
	}
	if !ok || seconds <= 0 {
		return nil, errors.New("duration not available")
	}

	meta := &Metadata{
		Duration:  time.Duration(seconds * float64(time.Second)),
		Width:     video.Width,
		Height:    video.Height,
		Codec:     video.CodecName,
		Container: out.Format.FormatName,
	}
	if size, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
		meta.Size = size
	}
	return meta, nil
}

func parseSeconds(s string) (float64, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
