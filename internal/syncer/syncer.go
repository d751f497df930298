// Package syncer mirrors remote daily campaign metrics into local storage
// on a fixed interval, so model training never reads from the remote API
// directly.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/infra/ads"
	"github.com/adsctl/optimizer/internal/infra/storage"
	"github.com/adsctl/optimizer/internal/metrics"
)

// Config holds syncer configuration for one account.
type Config struct {
	AccountID string
	Lookback  time.Duration
	Interval  time.Duration
	Source    ads.Source
	Executor  *ads.Executor
	Metrics   storage.MetricsRepository
	Logger    *slog.Logger
}

// Syncer runs the mirror loop for one account.
type Syncer struct {
	cfg     Config
	running atomic.Bool
	stop    chan struct{}
}

// New creates a syncer.
func New(cfg Config) *Syncer {
	return &Syncer{
		cfg:  cfg,
		stop: make(chan struct{}),
	}
}

// Start runs an immediate sync and then one per interval until the context
// is cancelled or Stop is called.
func (s *Syncer) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("syncer already running")
	}
	defer s.running.Store(false)

	if err := s.SyncOnce(ctx); err != nil {
		s.cfg.Logger.Warn("initial sync failed", "account", s.cfg.AccountID, "err", err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			if err := s.SyncOnce(ctx); err != nil {
				s.cfg.Logger.Warn("sync failed", "account", s.cfg.AccountID, "err", err)
			}
		}
	}
}

// Stop stops the loop.
func (s *Syncer) Stop() error {
	if s.running.Load() {
		close(s.stop)
	}
	return nil
}

// Running reports whether the loop is active.
func (s *Syncer) Running() bool {
	return s.running.Load()
}

// SyncOnce fetches the window since the last mirrored date and upserts it.
// The latest mirrored day is fetched again so late-arriving conversions get
// refreshed; an empty mirror starts from the full lookback window.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	runID := uuid.New().String()

	latest, err := s.cfg.Metrics.LatestDate(ctx, s.cfg.AccountID)
	if err != nil {
		return fmt.Errorf("resolve sync position: %w", err)
	}

	now := time.Now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		Add(-s.cfg.Lookback)
	if latest.After(since) {
		since = latest
	}

	var rows []*domain.CampaignMetrics
	err = s.cfg.Executor.Do(ctx, "DailyMetrics", func(ctx context.Context) error {
		var err error
		rows, err = s.cfg.Source.DailyMetrics(ctx, since)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch daily metrics: %w", err)
	}

	if len(rows) == 0 {
		s.cfg.Logger.Debug("no new metrics", "account", s.cfg.AccountID, "run_id", runID, "since", since)
		return nil
	}

	if err := s.cfg.Metrics.SaveBatch(ctx, rows); err != nil {
		return fmt.Errorf("mirror metrics: %w", err)
	}

	metrics.SyncRowsTotal.WithLabelValues(s.cfg.AccountID).Add(float64(len(rows)))
	metrics.SyncLastRun.WithLabelValues(s.cfg.AccountID).SetToCurrentTime()
	s.cfg.Logger.Info("mirrored daily metrics",
		"account", s.cfg.AccountID,
		"run_id", runID,
		"rows", len(rows),
		"since", since.Format("2006-01-02"))
	return nil
}
