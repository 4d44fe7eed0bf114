package memory

import (
	"context"
	"errors"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
)

// ErrStopped is returned by Wait once the monitor has been stopped.
var ErrStopped = errors.New("memory monitor stopped")

// Config holds memory monitor settings.
type Config struct {
	// LimitBytes is the limit usage is measured against (0 = use GOMEMLIMIT)
	LimitBytes int64

	// HighWaterMark is the usage ratio below which a paused monitor resumes (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which background work pauses (0.0-1.0)
	CriticalWaterMark float64

	// CheckInterval is how often usage is sampled
	CheckInterval time.Duration
}

// DefaultConfig returns the monitor defaults.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor tracks heap usage against a limit and gates background work.
type Monitor struct {
	config Config
	limit  int64
	sample func() uint64

	stopOnce sync.Once
	stopChan chan struct{}

	mu       sync.RWMutex
	current  uint64
	paused   bool
	resumeCh chan struct{}
}

// NewMonitor creates a monitor. Without an explicit limit or GOMEMLIMIT the
// monitor never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < math.MaxInt64 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		sample:   heapAlloc,
		stopChan: make(chan struct{}),
		resumeCh: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Start begins periodic sampling. It is a no-op without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases any goroutine blocked in Wait.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) check() {
	alloc := m.sample()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	if m.limit == 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.config.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing background work", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming background work", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumeCh)
		m.resumeCh = make(chan struct{})
	}
}

// Wait blocks while the monitor is paused. It returns ctx.Err() if ctx ends
// first and ErrStopped if the monitor is stopped while paused.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return nil
	}
	resume := m.resumeCh
	m.mu.RUnlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stopChan:
		return ErrStopped
	}
}

// ShouldThrottle reports whether usage is at or above the high water mark.
func (m *Monitor) ShouldThrottle() bool {
	if m.limit == 0 {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) >= float64(m.limit)*m.config.HighWaterMark
}

// Paused reports whether background work is currently paused.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Stats returns the last sampled heap allocation, the limit and their ratio.
func (m *Monitor) Stats() (current, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current = math.MaxInt64
	if m.current <= math.MaxInt64 {
		current = int64(m.current)
	}
	if m.limit > 0 {
		usage = float64(m.current) / float64(m.limit)
	}
	return current, m.limit, usage
}
