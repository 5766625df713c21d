package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"contact-sheet/internal/logging"
	"contact-sheet/internal/metrics"
)

// MonitorConfig holds memory monitor thresholds.
type MonitorConfig struct {
	// LimitBytes is the budget; zero uses the current GOMEMLIMIT.
	LimitBytes int64
	// HighWaterMark is the usage ratio below which a pause ends.
	HighWaterMark float64
	// CriticalWaterMark is the usage ratio at which new builds pause.
	CriticalWaterMark float64
	CheckInterval     time.Duration
}

// DefaultMonitorConfig returns the standard thresholds.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// heapAlloc reports live heap bytes. Replaceable for tests.
var heapAlloc = func() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Monitor pauses new work while heap use is critical.
type Monitor struct {
	cfg   MonitorConfig
	limit int64

	mu      sync.Mutex
	current uint64
	paused  bool
	resume  chan struct{}
}

// NewMonitor creates a monitor. Without an explicit or GOMEMLIMIT limit
// the monitor never pauses.
func NewMonitor(cfg MonitorConfig) *Monitor {
	limit := cfg.LimitBytes
	if limit == 0 {
		if goLimit := debug.SetMemoryLimit(-1); goLimit > 0 && goLimit < 1<<62 {
			limit = goLimit
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no limit configured, backpressure disabled")
	}
	return &Monitor{cfg: cfg, limit: limit, resume: make(chan struct{})}
}

// Run samples memory until ctx is done. It returns at once when there is no
// limit.
func (m *Monitor) Run(ctx context.Context) {
	if m.limit == 0 {
		return
	}

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) check() {
	alloc := heapAlloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case usage >= m.cfg.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing new sheet builds", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		go runtime.GC()
	case usage < m.cfg.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// Wait blocks while the monitor is paused. It returns ctx.Err() if ctx ends
// first.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.Lock()
	if !m.paused {
		m.mu.Unlock()
		return nil
	}
	resume := m.resume
	m.mu.Unlock()

	logging.Debug("Waiting for memory to recover")
	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether new work is held back.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Usage returns the last sampled heap use as a fraction of the limit, or 0
// without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.current) / float64(m.limit)
}
