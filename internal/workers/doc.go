/*
Package workers sizes the two worker pools of a contact-sheet run: how many
videos are built concurrently and how many decoder processes one build may
run at once.

# Overview

When running in a container the number of usable CPUs may be limited by
cgroup constraints. Go 1.19+ sets GOMAXPROCS from those limits, while
runtime.NumCPU() still reports the host count, so the sizing here is based
on GOMAXPROCS.

Each sheet build spawns its own ffmpeg processes and ffmpeg is itself
multi-threaded, so the defaults stay conservative:

	videoWorkers := workers.ForVideos(cfg.Workers)      // GOMAXPROCS/2, max 4
	frameWorkers := workers.ForFrames(cfg.FrameWorkers) // GOMAXPROCS, max 8

# Overrides

A positive configured value always wins over the calculation (but is still
capped by the limit). The SHEET_WORKERS and FRAME_WORKERS environment
variables feed those configured values through the config package:

	SHEET_WORKERS=1 FRAME_WORKERS=2 contact-sheet /videos

# Custom Sizing

	// 3 workers per CPU, maximum of 24, nothing configured
	n := workers.Count(0, 3.0, 24)

	// No maximum (use 0)
	n := workers.Count(0, 2.0, 0)
*/
package workers
