package memory

import (
	"testing"
)

// stubLimit records SetMemoryLimit calls instead of changing the runtime.
func stubLimit(t *testing.T, current int64) *[]int64 {
	t.Helper()
	var calls []int64
	orig := setMemoryLimit
	setMemoryLimit = func(limit int64) int64 {
		if limit >= 0 {
			calls = append(calls, limit)
			previous := current
			current = limit
			return previous
		}
		return current
	}
	t.Cleanup(func() { setMemoryLimit = orig })
	return &calls
}

func TestConfigureLimit(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantSource  string
		wantLimit   int64
		wantSetCall bool
	}{
		{
			name:       "Nothing set",
			env:        map[string]string{},
			wantSource: "none",
		},
		{
			name:        "Container limit with default ratio",
			env:         map[string]string{"MEMORY_LIMIT": "1000000000"},
			wantSource:  "MEMORY_LIMIT",
			wantLimit:   850000000,
			wantSetCall: true,
		},
		{
			name:        "Custom ratio",
			env:         map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "0.5"},
			wantSource:  "MEMORY_LIMIT",
			wantLimit:   500000000,
			wantSetCall: true,
		},
		{
			name:        "Out of range ratio uses default",
			env:         map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "1.5"},
			wantSource:  "MEMORY_LIMIT",
			wantLimit:   850000000,
			wantSetCall: true,
		},
		{
			name:       "Invalid container limit",
			env:        map[string]string{"MEMORY_LIMIT": "lots"},
			wantSource: "none",
		},
		{
			name:       "Negative container limit",
			env:        map[string]string{"MEMORY_LIMIT": "-5"},
			wantSource: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", "")
			t.Setenv("MEMORY_RATIO", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			calls := stubLimit(t, 0)

			result := ConfigureLimit()

			if result.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", result.Source, tt.wantSource)
			}
			if result.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", result.GoMemLimit, tt.wantLimit)
			}
			if result.Configured() != (tt.wantLimit > 0) {
				t.Errorf("Configured() = %v", result.Configured())
			}
			if got := len(*calls) > 0; got != tt.wantSetCall {
				t.Errorf("SetMemoryLimit called = %v, want %v", got, tt.wantSetCall)
			}
		})
	}
}

func TestConfigureLimitGOMEMLIMITWins(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "512MiB")
	t.Setenv("MEMORY_LIMIT", "1000000000")
	calls := stubLimit(t, 512<<20)

	result := ConfigureLimit()

	if result.Source != "GOMEMLIMIT" || result.GoMemLimit != 512<<20 {
		t.Errorf("result = %+v, want GOMEMLIMIT 512MiB", result)
	}
	if len(*calls) != 0 {
		t.Errorf("limit should not be changed when GOMEMLIMIT is set, got %v", *calls)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{850 << 20, "850.0 MiB"},
		{2 << 30, "2.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
