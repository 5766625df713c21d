// Package runner builds sheets for a list of videos with a bounded worker
// pool.
//
// Each video goes through check, build, re-check, save. The check skips
// videos that already have a sheet. The re-check, right before writing,
// drops the result when another process finished the same sheet while this
// build was running. This bounds duplicate work to one redundant build per
// race; it is not a lock.
//
// Per-video failures are logged and counted. They never stop the run.
// Only cancellation of the context does.
package runner
