package stats

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// WatchStats tracks event log watch statistics
type WatchStats struct {
	StartTime  time.Time
	Polls      uint64
	EventsSeen uint64
	Errors     uint64
	LastUpdate time.Time
}

// NewWatchStats creates a new watch stats collector
func NewWatchStats() *WatchStats {
	return &WatchStats{
		StartTime:  time.Now(),
		LastUpdate: time.Now(),
	}
}

// RecordPoll records one completed poll with the number of new events seen
func (s *WatchStats) RecordPoll(events uint64) {
	atomic.AddUint64(&s.Polls, 1)
	atomic.AddUint64(&s.EventsSeen, events)
	s.LastUpdate = time.Now()
}

// RecordError records a failed poll
func (s *WatchStats) RecordError() {
	atomic.AddUint64(&s.Polls, 1)
	atomic.AddUint64(&s.Errors, 1)
	s.LastUpdate = time.Now()
}

// GetStats returns current statistics
func (s *WatchStats) GetStats() map[string]interface{} {
	uptime := time.Since(s.StartTime)
	return map[string]interface{}{
		"uptime":      uptime.String(),
		"polls":       atomic.LoadUint64(&s.Polls),
		"events_seen": atomic.LoadUint64(&s.EventsSeen),
		"errors":      atomic.LoadUint64(&s.Errors),
		"last_update": s.LastUpdate,
	}
}

// GetStatsJSON returns stats as JSON
func (s *WatchStats) GetStatsJSON() ([]byte, error) {
	return json.Marshal(s.GetStats())
}

// CalculateRate calculates events observed per second since start
func (s *WatchStats) CalculateRate() float64 {
	uptime := time.Since(s.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&s.EventsSeen)) / uptime
}
