package ads

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// acquireJitterMax bounds the random extra wait added when the bucket is
// empty, so concurrent callers do not wake in lockstep.
const acquireJitterMax = 0.1 // seconds

// RateLimiter is a token bucket limiting outbound request rate. The bucket
// starts full and refills continuously at the configured rate.
//
// When the bucket is empty, Acquire reserves the next token to accrue and
// returns how long the caller must wait for it; lastRefill then sits in the
// future, so simultaneous callers queue behind each other with increasing
// waits instead of all waking at once.
type RateLimiter struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained
// throughput with bursts up to burstSize.
func NewRateLimiter(requestsPerSecond float64, burstSize int) *RateLimiter {
	return &RateLimiter{
		capacity:   float64(burstSize),
		tokens:     float64(burstSize),
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// refill credits tokens for the time elapsed since lastRefill, capped at
// capacity. A lastRefill in the future (outstanding reservations) is left
// untouched. Caller must hold mu.
func (l *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens = math.Min(l.capacity, l.tokens+elapsed*l.refillRate)
	l.lastRefill = now
}

// Acquire consumes one token if available and returns 0. Otherwise it
// returns how long the caller should wait before proceeding; the limiter
// itself never sleeps and never blocks. Tokens stay within [0, capacity].
func (l *RateLimiter) Acquire() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.refill(now)
	if l.tokens >= 1 {
		l.tokens--
		return 0
	}

	// Reserve the next token: it accrues (1-tokens)/rate after lastRefill,
	// which may already be ahead of now by earlier reservations.
	accrual := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
	ready := l.lastRefill.Add(accrual)
	l.lastRefill = ready
	l.tokens = 0

	wait := ready.Sub(now)
	wait += time.Duration(rand.Float64() * acquireJitterMax * float64(time.Second))
	return wait
}

// Tokens reports the current token count after refilling to now.
func (l *RateLimiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill(time.Now())
	return l.tokens
}
