package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/adsctl/optimizer/internal/infra/storage"
)

// Pruner deletes old mirrored data based on retention policy.
type Pruner struct {
	accountID string
	retention time.Duration
	metrics   storage.MetricsRepository
	recs      storage.RecommendationRepository
}

// NewPruner creates a new Pruner worker for one account.
func NewPruner(
	accountID string,
	retention time.Duration,
	metrics storage.MetricsRepository,
	recs storage.RecommendationRepository,
) *Pruner {
	return &Pruner{
		accountID: accountID,
		retention: retention,
		metrics:   metrics,
		recs:      recs,
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Calculate check interval (e.g., 10% of retention period, but max 1 hour)
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	if err := p.metrics.DeleteBefore(ctx, p.accountID, cutoff); err != nil {
		slog.Error("[Pruner] failed to prune metrics", "account", p.accountID, "error", err)
	}

	if err := p.recs.DeleteBefore(ctx, p.accountID, cutoff); err != nil {
		slog.Error("[Pruner] failed to prune recommendations", "account", p.accountID, "error", err)
	}
}
