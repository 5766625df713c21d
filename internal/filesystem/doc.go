/*
Package filesystem provides the file operations contact-sheet relies on for
its completion markers: existence checks and removals that retry on NFS stale
file handle errors, and atomic whole-file writes.

# Retry Behavior

Media libraries frequently live on network mounts. StatWithRetry,
RemoveWithRetry and Exists retry only on ESTALE (errno 116) with exponential
backoff; every other error is returned immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

# Atomic Writes

WriteFileAtomic writes to a hidden temporary file in the destination
directory and renames it over the target, so a sheet is either absent or
complete on disk. Two concurrent writers of the same sheet both succeed and
the last rename wins.

# Metrics

Retry counters are recorded through an Observer registered with SetObserver;
the metrics package provides the Prometheus implementation. With no observer
set, recording is skipped.
*/
package filesystem
