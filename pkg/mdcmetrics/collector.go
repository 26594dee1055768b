// Package mdcmetrics collects decode-path counters for an MDC-1200
// Decoder: how many captured blocks fail their CRC, how many pass it,
// and how many packets are actually delivered to a caller. It
// implements mdc.MetricsSink so it can be wired in via mdc.WithMetrics
// without pkg/mdc importing this package.
//
// Adapted from the DMR-Nexus Collector (pkg/metrics/collector.go):
// same sync.RWMutex-guarded plain-counter style, repointed at decode
// events instead of peer/stream/bridge events.
package mdcmetrics

import "sync"

// Collector collects MDC-1200 decode statistics.
type Collector struct {
	mu sync.RWMutex

	crcFailures      uint64
	blocksAccepted   uint64
	singlesDelivered uint64
	doublesDelivered uint64
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// CRCFailed records a captured 112-bit block whose embedded CRC did
// not match.
func (c *Collector) CRCFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.crcFailures++
}

// BlockAccepted records a captured 112-bit block whose CRC matched,
// regardless of whether it went on to complete a deliverable packet.
func (c *Collector) BlockAccepted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocksAccepted++
}

// PacketDelivered records a packet becoming available to the caller;
// good is 1 for a single packet or 2 for a double packet's second
// block.
func (c *Collector) PacketDelivered(good int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch good {
	case 1:
		c.singlesDelivered++
	case 2:
		c.doublesDelivered++
	}
}

// Snapshot is a point-in-time copy of the collector's counters.
type Snapshot struct {
	CRCFailures      uint64
	BlocksAccepted   uint64
	SinglesDelivered uint64
	DoublesDelivered uint64
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		CRCFailures:      c.crcFailures,
		BlocksAccepted:   c.blocksAccepted,
		SinglesDelivered: c.singlesDelivered,
		DoublesDelivered: c.doublesDelivered,
	}
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.crcFailures = 0
	c.blocksAccepted = 0
	c.singlesDelivered = 0
	c.doublesDelivered = 0
}
