package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		configured int
		multiplier float64
		limit      int
		expected   int
	}{
		{"configured wins", 3, 1.0, 0, 3},
		{"configured capped by limit", 10, 1.0, 4, 4},
		{"derived from procs", 0, 1.0, 0, procs},
		{"derived with limit", 0, 100.0, 5, 5},
		{"floor of one", 0, 0.0001, 0, 1},
		{"negative configured derives", -2, 1.0, 0, procs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.configured, tt.multiplier, tt.limit); got != tt.expected {
				t.Errorf("Count(%d, %v, %d) = %d, want %d", tt.configured, tt.multiplier, tt.limit, got, tt.expected)
			}
		})
	}
}

func TestForVideos(t *testing.T) {
	got := ForVideos(0)
	if got < 1 || got > MaxVideoWorkers {
		t.Errorf("ForVideos(0) = %d, want within [1, %d]", got, MaxVideoWorkers)
	}
	if got := ForVideos(2); got != 2 {
		t.Errorf("ForVideos(2) = %d, want 2", got)
	}
	if got := ForVideos(99); got != MaxVideoWorkers {
		t.Errorf("ForVideos(99) = %d, want %d", got, MaxVideoWorkers)
	}
}

func TestForFrames(t *testing.T) {
	got := ForFrames(0)
	if got < 1 || got > MaxFrameWorkers {
		t.Errorf("ForFrames(0) = %d, want within [1, %d]", got, MaxFrameWorkers)
	}
	if got := ForFrames(1); got != 1 {
		t.Errorf("ForFrames(1) = %d, want 1", got)
	}
}

func TestForFramesFollowsGOMAXPROCS(t *testing.T) {
	prev := runtime.GOMAXPROCS(2)
	defer runtime.GOMAXPROCS(prev)

	if got := ForFrames(0); got != 2 {
		t.Errorf("ForFrames(0) with GOMAXPROCS=2 = %d, want 2", got)
	}
	if got := ForVideos(0); got != 1 {
		t.Errorf("ForVideos(0) with GOMAXPROCS=2 = %d, want 1", got)
	}
}
