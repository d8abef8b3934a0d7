package network

import (
	"fmt"
	"sync"
	"time"

	"github.com/gridline-data/apex.report/internal/monitoring"
)

// PacketStatsInterface receives counters from the receive path. Every method
// must be cheap and safe to call from the receive goroutine.
type PacketStatsInterface interface {
	AddPacket(bytes int)
	AddDecoded()
	AddSkipped()
	AddDropped()
	LogStats()
}

// noopStats is the safe default when no collector is supplied.
type noopStats struct{}

func (noopStats) AddPacket(int) {}
func (noopStats) AddDecoded()   {}
func (noopStats) AddSkipped()   {}
func (noopStats) AddDropped()   {}
func (noopStats) LogStats()     {}

// StatsSnapshot is a point-in-time copy of the counters since process start.
type StatsSnapshot struct {
	Packets int64 `json:"packets"`
	Bytes   int64 `json:"bytes"`
	Decoded int64 `json:"decoded"`
	Skipped int64 `json:"skipped"` // unknown tag or disabled by the packet filter
	Dropped int64 `json:"dropped"` // malformed header or payload
}

// PacketStats tracks receive-path statistics with thread-safe operations.
type PacketStats struct {
	mu        sync.Mutex
	total     StatsSnapshot
	interval  StatsSnapshot
	lastReset time.Time
}

// NewPacketStats creates a new PacketStats instance.
func NewPacketStats() *PacketStats {
	return &PacketStats{lastReset: time.Now()}
}

// AddPacket increments the datagram and byte counters.
func (ps *PacketStats) AddPacket(bytes int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.total.Packets++
	ps.total.Bytes += int64(bytes)
	ps.interval.Packets++
	ps.interval.Bytes += int64(bytes)
}

// AddDecoded increments the decoded-and-dispatched counter.
func (ps *PacketStats) AddDecoded() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.total.Decoded++
	ps.interval.Decoded++
}

// AddSkipped increments the filtered/unknown-tag counter.
func (ps *PacketStats) AddSkipped() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.total.Skipped++
	ps.interval.Skipped++
}

// AddDropped increments the malformed-datagram counter.
func (ps *PacketStats) AddDropped() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.total.Dropped++
	ps.interval.Dropped++
}

// Snapshot returns the counters accumulated since construction.
func (ps *PacketStats) Snapshot() StatsSnapshot {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.total
}

// getAndResetInterval returns the counters since the last log and resets them.
func (ps *PacketStats) getAndResetInterval() (StatsSnapshot, time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	now := time.Now()
	s, d := ps.interval, now.Sub(ps.lastReset)
	ps.interval = StatsSnapshot{}
	ps.lastReset = now
	return s, d
}

// LogStats logs per-second rates for the interval since the previous call.
// Intervals with no traffic at all are not logged.
func (ps *PacketStats) LogStats() {
	s, duration := ps.getAndResetInterval()
	if s.Packets == 0 && s.Dropped == 0 {
		return
	}

	packetsPerSec := float64(s.Packets) / duration.Seconds()
	kbPerSec := float64(s.Bytes) / duration.Seconds() / 1024

	msg := fmt.Sprintf("Telemetry stats (/sec): %.1f KB, %.1f packets, %.1f decoded",
		kbPerSec, packetsPerSec, float64(s.Decoded)/duration.Seconds())
	if s.Skipped > 0 {
		msg += fmt.Sprintf(", %d filtered", s.Skipped)
	}
	if s.Dropped > 0 {
		msg += fmt.Sprintf(", %d malformed", s.Dropped)
	}
	monitoring.Logf("%s", msg)
}
