package metrics

import (
	"time"

	"photo-viewer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics of an open collection
type Stats struct {
	TotalItems   int
	ImagesLoaded int
	ThumbsLoaded int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
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

	CollectionItemsTotal.Set(float64(stats.TotalItems))
	CollectionImagesLoaded.Set(float64(stats.ImagesLoaded))
	CollectionThumbsLoaded.Set(float64(stats.ThumbsLoaded))

	logging.Debug("Metrics collected: items=%d, images=%d, thumbs=%d",
		stats.TotalItems, stats.ImagesLoaded, stats.ThumbsLoaded)
}
