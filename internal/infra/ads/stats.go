package ads

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats counts requests, errors and retries over a measurement window.
// Counters only grow; the window restarts solely through an explicit
// Reset from an operator surface.
type Stats struct {
	requests atomic.Int64
	errors   atomic.Int64
	retries  atomic.Int64

	mu          sync.Mutex
	windowStart time.Time
}

// NewStats creates a stats collector with the window starting now.
func NewStats() *Stats {
	return &Stats{windowStart: time.Now()}
}

func (s *Stats) recordRequest() { s.requests.Add(1) }
func (s *Stats) recordError()   { s.errors.Add(1) }
func (s *Stats) recordRetry()   { s.retries.Add(1) }

// StatsSnapshot is a point-in-time view of the counters with derived
// rate fields.
type StatsSnapshot struct {
	RequestCount   int64     `json:"request_count"`
	ErrorCount     int64     `json:"error_count"`
	RetryCount     int64     `json:"retry_count"`
	WindowStart    time.Time `json:"window_start"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	RequestRate    float64   `json:"request_rate"`
}

// Snapshot returns the current counter values. Safe to call while requests
// are executing.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	start := s.windowStart
	s.mu.Unlock()

	snap := StatsSnapshot{
		RequestCount: s.requests.Load(),
		ErrorCount:   s.errors.Load(),
		RetryCount:   s.retries.Load(),
		WindowStart:  start,
	}
	snap.ElapsedSeconds = time.Since(start).Seconds()
	if snap.ElapsedSeconds > 0 {
		snap.RequestRate = float64(snap.RequestCount) / snap.ElapsedSeconds
	}
	return snap
}

// Reset zeroes all counters and restarts the measurement window.
func (s *Stats) Reset() {
	s.mu.Lock()
	s.windowStart = time.Now()
	s.mu.Unlock()

	s.requests.Store(0)
	s.errors.Store(0)
	s.retries.Store(0)
}
