// Package startup prints the run banner and checks the environment before
// any sheet is built.
//
// # Build information
//
// [Version], [Commit] and [BuildTime] are injected at link time:
//
//	go build -ldflags "-X contact-sheet/internal/startup.Version=1.2.0" ./cmd/contact-sheet
//
// # Tool checks
//
// [CheckTools] runs "<tool> -version" for ffmpeg and ffprobe with a short
// timeout. A missing ffprobe or ffmpeg makes every build fail, so the command
// refuses to start without them.
//
// # Logging
//
// [LogConfig], [LogMetricsServer] and [LogSummary] write sectioned blocks in
// the same format as the banner so a run log reads top to bottom:
//
//	------------------------------------------------------------
//	CONFIGURATION
//	------------------------------------------------------------
//	  Sheet width:      1920
//	  ...
package startup
