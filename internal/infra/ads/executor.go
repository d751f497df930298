// Package ads wraps access to the remote Ads API with token-bucket rate
// limiting, status-code error classification and retry handling. Every
// outbound call in the system goes through an Executor.
package ads

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/adsctl/optimizer/internal/metrics"
)

// RetryConfig holds retry behavior configuration.
type RetryConfig struct {
	MaxRetries    int
	BaseDelay     time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the standard retry posture.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		BaseDelay:     1 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Executor runs remote calls through the rate limiter with classified
// retries. One executor serves one account; its stats accumulate until
// explicitly reset.
type Executor struct {
	account string
	limiter *RateLimiter
	cfg     RetryConfig
	stats   *Stats
	logger  *slog.Logger
}

// NewExecutor creates an executor for one account.
func NewExecutor(account string, limiter *RateLimiter, cfg RetryConfig, logger *slog.Logger) *Executor {
	return &Executor{
		account: account,
		limiter: limiter,
		cfg:     cfg,
		stats:   NewStats(),
		logger:  logger,
	}
}

// Stats returns the executor's request counters.
func (e *Executor) Stats() *Stats {
	return e.stats
}

// Do runs fn through the rate limiter, retrying transient failures with
// exponential backoff. It stops after MaxRetries retries, or immediately on
// a fatal error or context cancellation. The last error is returned when
// retries are exhausted.
func (e *Executor) Do(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if err := e.waitForToken(ctx); err != nil {
			return err
		}

		e.stats.recordRequest()
		metrics.APIRequestsTotal.WithLabelValues(e.account, method).Inc()

		start := time.Now()
		err := fn(ctx)
		metrics.APILatency.WithLabelValues(e.account, method).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}

		e.stats.recordError()
		class := Classify(err)
		metrics.APIErrorsTotal.WithLabelValues(e.account, class.String()).Inc()
		lastErr = err

		if class == ClassFatal {
			e.logger.Error("request failed", "method", method, "err", err)
			return fmt.Errorf("%s: %w", method, err)
		}
		if attempt == e.cfg.MaxRetries {
			break
		}

		e.stats.recordRetry()
		metrics.APIRetriesTotal.WithLabelValues(e.account).Inc()

		delay := e.retryDelay(class, attempt+1, err)
		e.logger.Warn("request failed, retrying",
			"method", method,
			"attempt", attempt+1,
			"delay", delay,
			"err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s: retries exhausted after %d attempts: %w", method, e.cfg.MaxRetries+1, lastErr)
}

// waitForToken asks the limiter for a token and sleeps out any returned
// wait, honoring ctx.
func (e *Executor) waitForToken(ctx context.Context) error {
	wait := e.limiter.Acquire()
	if wait <= 0 {
		return nil
	}

	metrics.RateLimitWait.WithLabelValues(e.account).Observe(wait.Seconds())
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// retryDelay computes the sleep before retry number n (1-based). Classified
// transient errors back off exponentially with up to 10% jitter; a server
// RetryInfo hint replaces the computed base. Unclassified errors wait the
// flat base delay.
func (e *Executor) retryDelay(class Class, n int, err error) time.Duration {
	if class == ClassUnknown {
		return e.cfg.BaseDelay
	}

	base := float64(e.cfg.BaseDelay) * math.Pow(e.cfg.BackoffFactor, float64(n-1))
	if hint, ok := RetryHint(err); ok {
		base = float64(hint)
	}
	return time.Duration(base + rand.Float64()*0.1*base)
}
