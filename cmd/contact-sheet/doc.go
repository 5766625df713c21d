// Package main provides the contact-sheet command.
//
// contact-sheet renders one JPEG per video: a header with the file name,
// size, resolution, duration and codec, followed by a grid of evenly spaced
// frames, each stamped with its time.
//
// # Usage
//
//	contact-sheet [flags] PATH...
//
// Each PATH is a video file or a directory; directories are scanned
// recursively, skipping hidden entries. For a video at <dir>/<name>.<ext> the
// sheet is written to <dir>/<name>.sheet.jpg. A video that already has a sheet
// is skipped, so re-running over the same tree only builds what is new.
// Sheets whose video no longer exists are deleted.
//
// # Flags
//
//	-c, --config FILE   JSON or YAML configuration file
//	-j, --workers N     videos built at once (0 = from CPU count)
//	    --shuffle       process videos in random order
//	-n, --dry-run       list what would be built and removed, then exit
//	-v, --verbose       debug logging
//	-q, --quiet         warnings and errors only
//
// # Environment
//
//   - FFMPEG_PATH, FFPROBE_PATH: decoder binaries (default: from PATH)
//   - SHEET_WORKERS, FRAME_WORKERS: worker pool sizes
//   - METRICS_ADDR: serve Prometheus metrics on this address during the run
//   - USE_VIPS: encode sheets with libvips (required for .webp sheets)
//   - LOG_LEVEL, DEBUG: log level (flags take precedence)
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO: heap budget
//
// # Exit status
//
// 0 when every video has a sheet (degraded sheets count), 1 when any video
// failed, 2 on bad usage or configuration, 130 when interrupted.
package main
