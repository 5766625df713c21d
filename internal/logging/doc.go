// Package logging provides a simple leveled logging interface for the
// contact-sheet command.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (decoder arguments, state transitions)
//   - INFO: General operational messages
//   - WARN: Degraded sheets and skipped cleanup
//   - ERROR: Per-video failures
//   - FATAL: Fatal errors that terminate the run
//
// The log level is read from the DEBUG or LOG_LEVEL environment variable and
// may be overridden from the command line with SetLevel.
package logging
