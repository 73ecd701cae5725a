package metrics

import (
	"time"
)

// StatsSource is the view of the world the collector samples. Implemented by
// the world so this package does not depend on it.
type StatsSource interface {
	// ZoneCounts returns the number of regular and instance zones
	ZoneCounts() (regular, instance int)

	// EntityCounts returns live entity counts keyed by kind
	EntityCounts() map[string]int
}

// Collector samples world-level gauges on a fixed interval
type Collector struct {
	source StatsSource
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	regular, instance := c.source.ZoneCounts()
	ZonesTotal.WithLabelValues("regular").Set(float64(regular))
	ZonesTotal.WithLabelValues("instance").Set(float64(instance))

	EntitiesTotal.Reset()
	for kind, count := range c.source.EntityCounts() {
		EntitiesTotal.WithLabelValues(kind).Set(float64(count))
	}
}
