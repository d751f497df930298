package ads

import (
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenWait(t *testing.T) {
	l := NewRateLimiter(2.0, 5)

	for i := 0; i < 5; i++ {
		if wait := l.Acquire(); wait != 0 {
			t.Errorf("Expected zero wait for burst call %d, got %v", i, wait)
		}
	}

	wait := l.Acquire()
	if wait <= 0 {
		t.Errorf("Expected positive wait after burst exhausted, got %v", wait)
	}
	// Base wait is (1-tokens)/rate ~ 0.5s, plus up to 100ms jitter.
	if wait < 400*time.Millisecond || wait > 700*time.Millisecond {
		t.Errorf("Expected wait near 500ms, got %v", wait)
	}
}

func TestRateLimiter_MonotonicWaits(t *testing.T) {
	l := NewRateLimiter(2.0, 1)
	l.Acquire() // drain the single token

	var prev time.Duration
	for i := 0; i < 5; i++ {
		wait := l.Acquire()
		if wait <= prev {
			t.Errorf("Expected wait %d (%v) to exceed previous (%v)", i, wait, prev)
		}
		prev = wait
	}
}

func TestRateLimiter_SpacedCallsNeverWait(t *testing.T) {
	l := NewRateLimiter(100.0, 1)

	for i := 0; i < 5; i++ {
		if wait := l.Acquire(); wait != 0 {
			t.Errorf("Expected zero wait for spaced call %d, got %v", i, wait)
		}
		time.Sleep(12 * time.Millisecond) // > 1/refillRate
	}
}

func TestRateLimiter_RefillCappedAtCapacity(t *testing.T) {
	l := NewRateLimiter(2.0, 5)
	for i := 0; i < 5; i++ {
		l.Acquire()
	}

	l.mu.Lock()
	l.lastRefill = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	if tokens := l.Tokens(); tokens != 5 {
		t.Errorf("Expected refill capped at 5 tokens, got %v", tokens)
	}
}

func TestRateLimiter_Concurrency(t *testing.T) {
	l := NewRateLimiter(10.0, 5)

	var wg sync.WaitGroup
	var mu sync.Mutex
	immediate := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire() == 0 {
				mu.Lock()
				immediate++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// At most the burst plus a little refill can be granted instantly.
	if immediate > 7 {
		t.Errorf("Expected at most 7 immediate grants, got %d", immediate)
	}
	if tokens := l.Tokens(); tokens < 0 {
		t.Errorf("Expected non-negative tokens, got %v", tokens)
	}
}
