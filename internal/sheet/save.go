package sheet

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"contact-sheet/internal/filesystem"
	"contact-sheet/internal/logging"
	"contact-sheet/internal/metrics"

	"github.com/disintegration/imaging"
)

// Encode renders img in the format implied by path's extension.
func Encode(img image.Image, path string, quality int) ([]byte, error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode sheet: %w", err)
	}
	return buf.Bytes(), nil
}

// encode prefers libvips when it is enabled and running, and falls back to
// imaging if libvips cannot write the sheet.
func (b *Builder) encode(img image.Image, path string) ([]byte, error) {
	if b.cfg.UseVips && VipsRunning() {
		data, err := encodeWithVips(img, path, b.cfg.JPEGQuality)
		if err == nil {
			return data, nil
		}
		logging.Warn("libvips could not encode %s, using imaging: %v", filepath.Base(path), err)
	}
	return Encode(img, path, b.cfg.JPEGQuality)
}

// Save encodes res and writes it to path in one rename, so readers never see
// a partial sheet. An existing file at path is replaced.
func (b *Builder) Save(res *Result, path string) error {
	start := time.Now()
	defer func() {
		metrics.SheetBuildDuration.WithLabelValues("save").Observe(time.Since(start).Seconds())
	}()

	data, err := b.encode(res.Image, path)
	if err != nil {
		return &BuildError{Kind: KindIO, Video: res.VideoPath, Err: err}
	}
	if err := filesystem.WriteFileAtomic(path, data, 0o644); err != nil {
		return &BuildError{Kind: KindIO, Video: res.VideoPath, Err: err}
	}
	return nil
}
