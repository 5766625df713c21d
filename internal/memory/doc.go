// Package memory keeps sheet builds inside the process's memory budget.
//
// A sheet is composited in memory at full size, and several sheets may be in
// flight at once, so heap use scales with the number of video workers.
//
// # Limit
//
// [ConfigureLimit] sets the Go soft memory limit early in main:
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and is only reported.
//   - MEMORY_LIMIT: container limit in bytes, e.g. from the Kubernetes
//     Downward API (resourceFieldRef: limits.memory).
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap, in (0, 1].
//     Default 0.85; the rest is left for ffmpeg and libvips.
//
// # Backpressure
//
// A [Monitor] samples heap use against the limit. Above the critical mark it
// pauses: [Monitor.Wait] blocks new builds until use drops below the high
// mark. Builds already running are never interrupted. Without a limit the
// monitor is inert and Wait returns at once.
package memory
