package sheet

import "time"

// Sample is one frame to extract: its cell index and seek position.
type Sample struct {
	Index     int
	Timestamp time.Duration
}

// SampleTimestamps spreads total samples evenly over the video, skipping
// duration*skipFraction at both ends and never landing on a boundary.
//
// Short videos or large grids can collapse the spacing toward zero; samples
// are not deduplicated in that case.
func SampleTimestamps(duration time.Duration, total int, skipFraction float64) []Sample {
	if total <= 0 {
		return nil
	}

	seconds := duration.Seconds()
	skip := seconds * skipFraction
	effective := seconds - 2*skip
	interval := effective / float64(total+1)

	samples := make([]Sample, total)
	for k := range samples {
		at := skip + interval*float64(k+1)
		samples[k] = Sample{
			Index:     k,
			Timestamp: time.Duration(at * float64(time.Second)),
		}
	}
	return samples
}
