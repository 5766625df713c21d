package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"sync"

	"contact-sheet/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// govips cannot start again after vips.Shutdown, so stopped is terminal.
var vipsState struct {
	sync.Mutex
	running bool
	stopped bool
}

var errVipsStopped = errors.New("libvips was shut down and cannot be restarted")

// ErrVipsFormat is returned when libvips is asked for a sheet format it
// does not write.
var ErrVipsFormat = errors.New("format not supported by libvips encoder")

// StartVips starts libvips for sheet encoding. With it running, Save writes
// progressive, Huffman-optimized JPEGs without metadata, and can write WebP
// sheets, which imaging cannot encode. Safe to call more than once.
func StartVips() error {
	vipsState.Lock()
	defer vipsState.Unlock()

	if vipsState.running {
		return nil
	}
	if vipsState.stopped {
		return errVipsStopped
	}

	// Must be set before Startup or libvips logs straight to stderr.
	vips.LoggingSettings(logVipsMessage, vipsLogLevel(logging.GetLevel()))

	// One encode per sheet; builds already run in parallel.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      16 * 1024 * 1024,
		MaxCacheSize:     10,
	})

	vipsState.running = true
	logging.Info("libvips %s started for sheet encoding", vips.Version)
	return nil
}

// StopVips releases libvips. Later StartVips calls fail.
func StopVips() {
	vipsState.Lock()
	defer vipsState.Unlock()

	if !vipsState.running {
		return
	}
	vips.Shutdown()
	vipsState.running = false
	vipsState.stopped = true
	logging.Debug("libvips stopped")
}

// VipsRunning reports whether StartVips succeeded and StopVips has not run.
func VipsRunning() bool {
	vipsState.Lock()
	defer vipsState.Unlock()
	return vipsState.running
}

// vipsLogLevel keeps libvips one step quieter than our own level.
func vipsLogLevel(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

func logVipsMessage(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[vips:%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[vips:%s] %s", domain, msg)
	default:
		logging.Debug("[vips:%s] %s", domain, msg)
	}
}

// encodeWithVips hands the composited sheet to libvips as a fast lossless
// PNG and exports it in the format named by path's extension.
func encodeWithVips(img image.Image, path string, quality int) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return nil, fmt.Errorf("%w: %q", ErrVipsFormat, ext)
	}

	var raw bytes.Buffer
	if err := imaging.Encode(&raw, img, imaging.PNG, imaging.PNGCompressionLevel(png.NoCompression)); err != nil {
		return nil, fmt.Errorf("failed to stage sheet for libvips: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(raw.Bytes())
	if err != nil {
		return nil, fmt.Errorf("libvips failed to load sheet: %w", err)
	}
	defer ref.Close()

	var data []byte
	switch ext {
	case ".png":
		params := vips.NewPngExportParams()
		params.StripMetadata = true
		data, _, err = ref.ExportPng(params)
	case ".webp":
		params := vips.NewWebpExportParams()
		params.Quality = quality
		params.StripMetadata = true
		data, _, err = ref.ExportWebp(params)
	default:
		params := vips.NewJpegExportParams()
		params.Quality = quality
		params.Interlace = true
		params.OptimizeCoding = true
		params.StripMetadata = true
		data, _, err = ref.ExportJpeg(params)
	}
	if err != nil {
		return nil, fmt.Errorf("libvips failed to encode %s sheet: %w", ext, err)
	}
	return data, nil
}
