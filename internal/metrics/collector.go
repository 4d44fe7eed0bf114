package metrics

import (
	"time"

	"video-streamer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current job registry counts
type Stats struct {
	NotStarted int
	Processing int
	Completed  int
	Error      int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	done          chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and waits for the loop to exit
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.done
}

func (c *Collector) collectLoop() {
	defer close(c.done)

	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	TranscoderJobsByState.WithLabelValues("not_started").Set(float64(stats.NotStarted))
	TranscoderJobsByState.WithLabelValues("processing").Set(float64(stats.Processing))
	TranscoderJobsByState.WithLabelValues("completed").Set(float64(stats.Completed))
	TranscoderJobsByState.WithLabelValues("error").Set(float64(stats.Error))

	logging.Debug("Metrics collected: processing=%d, completed=%d, error=%d",
		stats.Processing, stats.Completed, stats.Error)
}
