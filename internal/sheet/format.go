package sheet

import (
	"fmt"
	"time"
)

const (
	mebibyte = 1 << 20
	gibibyte = 1 << 30
)

// FormatSize renders a file size as whole megabytes below 1 GB and as
// gigabytes with one decimal above.
func FormatSize(bytes int64) string {
	if bytes >= gibibyte {
		return fmt.Sprintf("%.1f GB", float64(bytes)/gibibyte)
	}
	return fmt.Sprintf("%.0f MB", float64(bytes)/mebibyte)
}

// FormatClock renders d as HH:MM:SS, truncated to whole seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// FormatTimestamp renders a thumbnail badge: HH:MM:SS when the video runs an
// hour or longer, MM:SS otherwise.
func FormatTimestamp(ts, videoDuration time.Duration) string {
	if videoDuration >= time.Hour {
		return FormatClock(ts)
	}
	if ts < 0 {
		ts = 0
	}
	s := int64(ts / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
