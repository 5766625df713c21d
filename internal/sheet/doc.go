// Package sheet builds contact sheets: a single image holding a grid of
// evenly time-spaced video frames under a header with the file name, size,
// resolution, duration and codec.
//
// A build runs through fixed states:
//
//	Init → Probed → LayoutComputed → Extracting → Composited → Done
//
// with failure exits to Failed from probing (KindProbe), layout (KindConfig)
// and extraction (KindExtraction). The temporary directory holding
// extracted frames belongs to exactly one build and is removed on every exit
// path. Missing frames never fail a build; they leave their cell blank and
// mark the Result as degraded.
//
// The pieces are usable on their own: ComputeLayout and SampleTimestamps are
// pure functions, FFmpegExtractor runs one ffmpeg process per sample, and
// Compositor renders a Geometry plus extracted frames into an image.
package sheet
