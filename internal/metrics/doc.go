// Package metrics provides Prometheus instrumentation for contact-sheet runs.
//
// All metrics are prefixed with "contact_sheet_" and registered on the default
// registry through promauto. They can be scraped while a long directory run
// is in progress by setting METRICS_ADDR (see Serve).
//
// # Metric Categories
//
// ## Sheet Builds
//
//   - SheetBuildsTotal: Counter of finished builds by status
//     (success, degraded, skipped, raced, error_probe, error_config,
//     error_extraction, error_io)
//   - SheetBuildDuration: Histogram of build time by phase
//     (probe, extract, compose, save, total)
//   - SheetFramesTotal: Counter of sheet cells by result (drawn, missing)
//   - SheetBuildsInFlight: Gauge of builds currently running
//
// ## External Decoders
//
//   - DecoderInvocationsTotal: Counter of ffmpeg/ffprobe processes by status
//     (success, error, timeout)
//
// ## Scan and Cleanup
//
//   - OrphanSheetsRemoved: Counter of sheets deleted because their video is gone
//   - TempDirsSwept: Counter of stale temporary directories removed
//
// ## Filesystem
//
//   - FilesystemRetryAttempts / Success / Failures / StaleErrors /
//     Duration: ESTALE retry behaviour for stat and remove on network mounts
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
