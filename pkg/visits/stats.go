package visits

import (
	"sync"
	"sync/atomic"
)

// Tracker counts interactions per hotspot.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*HotspotStats
}

// HotspotStats holds the counters of one hotspot.
// Fields are accessed atomically.
type HotspotStats struct {
	Prompts       int64 `json:"prompts"`
	Opens         int64 `json:"opens"`
	Closes        int64 `json:"closes"`
	WriteFailures int64 `json:"write_failures"`
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		stats: make(map[string]*HotspotStats),
	}
}

// getStats returns the stats object for a hotspot, creating it if needed.
func (t *Tracker) getStats(hotspot string) *HotspotStats {
	t.mu.RLock()
	s, ok := t.stats[hotspot]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.stats[hotspot]; ok {
		return s
	}
	s = &HotspotStats{}
	t.stats[hotspot] = s
	return s
}

func (t *Tracker) TrackPrompt(hotspot string) {
	atomic.AddInt64(&t.getStats(hotspot).Prompts, 1)
}

func (t *Tracker) TrackOpen(hotspot string) {
	atomic.AddInt64(&t.getStats(hotspot).Opens, 1)
}

func (t *Tracker) TrackClose(hotspot string) {
	atomic.AddInt64(&t.getStats(hotspot).Closes, 1)
}

func (t *Tracker) TrackWriteFailure(hotspot string) {
	atomic.AddInt64(&t.getStats(hotspot).WriteFailures, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]HotspotStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]HotspotStats, len(t.stats))
	for k, v := range t.stats {
		result[k] = HotspotStats{
			Prompts:       atomic.LoadInt64(&v.Prompts),
			Opens:         atomic.LoadInt64(&v.Opens),
			Closes:        atomic.LoadInt64(&v.Closes),
			WriteFailures: atomic.LoadInt64(&v.WriteFailures),
		}
	}
	return result
}
