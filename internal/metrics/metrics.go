package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sheet build metrics
var (
	SheetBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_sheet_builds_total",
			Help: "Total number of finished sheet builds by status",
		},
		[]string{"status"},
	)

	SheetBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_sheet_build_duration_seconds",
			Help:    "Sheet build duration in seconds by phase",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"phase"},
	)

	SheetFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_sheet_frames_total",
			Help: "Total number of sheet cells by result",
		},
		[]string{"result"}, // "drawn" or "missing"
	)

	SheetBuildsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_sheet_builds_in_flight",
			Help: "Number of sheet builds currently running",
		},
	)
)

// External decoder metrics
var (
	DecoderInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_sheet_decoder_invocations_total",
			Help: "Total number of external decoder processes by tool and status",
		},
		[]string{"tool", "status"},
	)
)

// Scan and cleanup metrics
var (
	OrphanSheetsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_sheet_orphans_removed_total",
			Help: "Total number of sheets removed because their video no longer exists",
		},
	)

	TempDirsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_sheet_temp_dirs_swept_total",
			Help: "Total number of stale temporary directories removed",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_sheet_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after ESTALE",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_sheet_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_sheet_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_sheet_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_sheet_filesystem_retry_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_sheet_memory_usage_ratio",
			Help: "Heap usage as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_sheet_memory_paused",
			Help: "1 while new sheet builds are held back for memory, 0 otherwise",
		},
	)
)
