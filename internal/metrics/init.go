package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, status := range []string{"success", "degraded", "skipped", "raced",
		"error_probe", "error_config", "error_extraction", "error_io"} {
		SheetBuildsTotal.WithLabelValues(status)
	}

	for _, phase := range []string{"probe", "extract", "compose", "save", "total"} {
		SheetBuildDuration.WithLabelValues(phase)
	}

	for _, result := range []string{"drawn", "missing"} {
		SheetFramesTotal.WithLabelValues(result)
	}

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		for _, status := range []string{"success", "error", "timeout"} {
			DecoderInvocationsTotal.WithLabelValues(tool, status)
		}
	}

	for _, op := range []string{"stat", "remove"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemRetryDuration.WithLabelValues(op)
	}
}
