package workers

import (
	"runtime"
)

const (
	// MaxVideoWorkers caps concurrent sheet builds.
	MaxVideoWorkers = 4
	// MaxFrameWorkers caps concurrent decoder processes per build.
	MaxFrameWorkers = 8
)

// Count returns the number of workers to use.
//
// A positive configured value is used as-is. Otherwise the count is derived
// from GOMAXPROCS (which follows container CPU limits in Go 1.19+) times the
// multiplier, with a floor of one.
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit.
func Count(configured int, multiplier float64, limit int) int {
	workers := configured
	if workers <= 0 {
		available := runtime.GOMAXPROCS(0)
		workers = int(float64(available) * multiplier)
	}

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForVideos returns the number of sheets to build concurrently.
func ForVideos(configured int) int {
	return Count(configured, 0.5, MaxVideoWorkers)
}

// ForFrames returns the number of decoder processes one build may run.
func ForFrames(configured int) int {
	return Count(configured, 1.0, MaxFrameWorkers)
}
